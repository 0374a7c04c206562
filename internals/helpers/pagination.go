package helper

import "github.com/gofiber/fiber/v2"

type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.PerPage }

// ParsePagination reads ?page & ?per_page with sane bounds.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return Pagination{Page: page, PerPage: perPage}
}
