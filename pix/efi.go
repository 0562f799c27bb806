package pix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

type EfiConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	CertFile     string
	KeyFile      string
	PixKey       string
	// HTTPClient подменяет mTLS-клиент (тесты, прокси).
	HTTPClient *http.Client
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pix gateway responded %d: %s", e.StatusCode, e.Body)
}

type efiGateway struct {
	client       *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	pixKey       string
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// tokenLeeway: запас, с которым токен обновляется до истечения.
const tokenLeeway = 30 * time.Second

func NewEfiGateway(cfg EfiConfig, logger *slog.Logger) (Gateway, error) {
	if cfg.BaseURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("invalid pix gateway configuration: base url and client credentials are required")
	}
	if cfg.PixKey == "" {
		return nil, errors.New("invalid pix gateway configuration: pix key is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load pix client certificate: %w", err)
		}
		client = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				},
			},
		}
	}

	return &efiGateway{
		client:       client,
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		pixKey:       cfg.PixKey,
		logger:       logger,
		now:          time.Now,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (g *efiGateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && g.now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	body := bytes.NewBufferString(`{"grant_type":"client_credentials"}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/oauth/token", body)
	if err != nil {
		return "", fmt.Errorf("new token request: %w", err)
	}
	req.SetBasicAuth(g.clientID, g.clientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("pix gateway returned an empty access token")
	}

	g.token = tr.AccessToken
	g.tokenExpiry = g.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenLeeway)
	g.logger.Debug("pix access token refreshed", slog.Int("expires_in", tr.ExpiresIn))
	return g.token, nil
}

func (g *efiGateway) resetToken() {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()
}

// do выполняет авторизованный запрос; при 401 токен обновляется один раз.
func (g *efiGateway) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
	}

	endpoint := g.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		token, err := g.accessToken(ctx)
		if err != nil {
			return err
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s failed: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			g.resetToken()
			continue
		}

		err = decodeResponse(resp, out)
		resp.Body.Close()
		return err
	}
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrChargeNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type cobValue struct {
	Original string `json:"original"`
}

type cobCalendar struct {
	Criacao   *time.Time `json:"criacao,omitempty"`
	Expiracao int        `json:"expiracao"`
}

type cobRequest struct {
	Calendario         cobCalendar `json:"calendario"`
	Valor              cobValue    `json:"valor"`
	Chave              string      `json:"chave"`
	SolicitacaoPagador string      `json:"solicitacaoPagador,omitempty"`
}

type cobResponse struct {
	TxID          string      `json:"txid"`
	Status        string      `json:"status"`
	Calendario    cobCalendar `json:"calendario"`
	Valor         cobValue    `json:"valor"`
	PixCopiaECola string      `json:"pixCopiaECola"`
	Location      string      `json:"location"`
}

func (r *cobResponse) toCharge() (*Charge, error) {
	cents, err := ParseAmount(r.Valor.Original)
	if err != nil {
		return nil, err
	}
	c := &Charge{
		TxID:        r.TxID,
		Status:      r.Status,
		AmountCents: cents,
		CopyPaste:   r.PixCopiaECola,
		Location:    r.Location,
		Expiration:  time.Duration(r.Calendario.Expiracao) * time.Second,
	}
	if r.Calendario.Criacao != nil {
		c.CreatedAt = *r.Calendario.Criacao
	}
	return c, nil
}

func (g *efiGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.TxID == "" {
		return nil, errors.New("txid is required")
	}
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %d", req.AmountCents)
	}
	body := cobRequest{
		Calendario:         cobCalendar{Expiracao: int(req.Expiration / time.Second)},
		Valor:              cobValue{Original: FormatAmount(req.AmountCents)},
		Chave:              g.pixKey,
		SolicitacaoPagador: req.Description,
	}

	var resp cobResponse
	if err := g.do(ctx, http.MethodPut, "/v2/cob/"+url.PathEscape(req.TxID), nil, body, &resp); err != nil {
		return nil, fmt.Errorf("create charge %s: %w", req.TxID, err)
	}
	g.logger.Info("pix charge created", slog.String("txid", req.TxID), slog.String("status", resp.Status))
	return resp.toCharge()
}

func (g *efiGateway) GetCharge(ctx context.Context, txid string) (*Charge, error) {
	var resp cobResponse
	if err := g.do(ctx, http.MethodGet, "/v2/cob/"+url.PathEscape(txid), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get charge %s: %w", txid, err)
	}
	return resp.toCharge()
}

type receivedPage struct {
	Notification
	Parametros struct {
		Paginacao struct {
			PaginaAtual         int `json:"paginaAtual"`
			QuantidadeDePaginas int `json:"quantidadeDePaginas"`
		} `json:"paginacao"`
	} `json:"parametros"`
}

func (g *efiGateway) ListReceived(ctx context.Context, from, to time.Time) ([]Received, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid window: %s is not before %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	received := make([]Received, 0)
	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("inicio", from.UTC().Format(time.RFC3339))
		query.Set("fim", to.UTC().Format(time.RFC3339))
		query.Set("paginacao.paginaAtual", strconv.Itoa(page))

		var resp receivedPage
		if err := g.do(ctx, http.MethodGet, "/v2/pix", query, nil, &resp); err != nil {
			if errors.Is(err, ErrChargeNotFound) {
				return received, nil
			}
			return nil, fmt.Errorf("list received pix: %w", err)
		}

		for _, item := range resp.Pix {
			r, err := item.Received()
			if err != nil {
				g.logger.Warn("skipping malformed received pix", slog.String("end_to_end_id", item.EndToEndID), slog.Any("error", err))
				continue
			}
			received = append(received, r)
		}

		if page+1 >= resp.Parametros.Paginacao.QuantidadeDePaginas {
			return received, nil
		}
	}
}
