// file: internals/features/patients/service/dni_lookup_client.go
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
)

// DNILookupClient queries the national identity registry API. Built when a
// base URL is configured; otherwise the directory runs with manual data
// only.
type DNILookupClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewDNILookupClient(baseURL, apiKey string) *DNILookupClient {
	return &DNILookupClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type dniAPIResponse struct {
	Estado  bool `json:"estado"`
	Resultado struct {
		ID              string `json:"id"`
		Nombres         string `json:"nombres"`
		ApellidoPaterno string `json:"apellido_paterno"`
		ApellidoMaterno string `json:"apellido_materno"`
		FechaNacimiento string `json:"fecha_nacimiento"`
		Genero          string `json:"genero"`
	} `json:"resultado"`
}

func (c *DNILookupClient) LookupDNI(ctx context.Context, dni string) (*LookupResult, error) {
	u := fmt.Sprintf("%s?document=%s&key=%s", c.baseURL, url.QueryEscape(dni), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dni registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var payload dniAPIResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if !payload.Estado || payload.Resultado.Nombres == "" {
		return nil, fmt.Errorf("dni %s not found in registry", dni)
	}

	out := &LookupResult{
		DNI:              dni,
		FirstNames:       payload.Resultado.Nombres,
		LastNamePaternal: payload.Resultado.ApellidoPaterno,
		LastNameMaternal: payload.Resultado.ApellidoMaterno,
	}
	if payload.Resultado.Genero != "" {
		sex := payload.Resultado.Genero
		out.Sex = &sex
	}
	if payload.Resultado.FechaNacimiento != "" {
		if t, err := time.Parse("02/01/2006", payload.Resultado.FechaNacimiento); err == nil {
			out.BirthDate = &t
		}
	}
	return out, nil
}
