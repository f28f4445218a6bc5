package source

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// OpenSearchConfig holds connection settings for an OpenSearch node.
type OpenSearchConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// MaxDocuments bounds the match-all search (default DefaultMaxDocuments).
	MaxDocuments int
	// Timeout bounds the wait for response headers. Zero means no limit.
	Timeout time.Duration
}

// OpenSearch reads synonym documents from an OpenSearch node. With
// credentials it talks HTTPS with basic auth and trusts self-signed
// certificates; without them it talks plain HTTP.
type OpenSearch struct {
	client    *opensearch.Client
	transport *http.Transport
	addr      string
	maxDocs   int
}

// NewOpenSearch creates a client. No request is made until Exists or
// SearchAll is called.
func NewOpenSearch(cfg OpenSearchConfig) (*OpenSearch, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 9200
	}

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConnsPerHost:   2,
		ResponseHeaderTimeout: cfg.Timeout,
	}
	scheme := "http"
	if cfg.Username != "" && cfg.Password != "" {
		scheme = "https"
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed cluster certificates
	}
	addr := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, strconv.Itoa(port)))

	osCfg := opensearch.Config{
		Addresses:    []string{addr},
		Transport:    tr,
		DisableRetry: true,
	}
	if scheme == "https" {
		osCfg.Username = cfg.Username
		osCfg.Password = cfg.Password
	}
	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client for %s: %w", addr, err)
	}

	maxDocs := cfg.MaxDocuments
	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocuments
	}
	return &OpenSearch{client: client, transport: tr, addr: addr, maxDocs: maxDocs}, nil
}

// Address returns the node URL.
func (o *OpenSearch) Address() string {
	return o.addr
}

// Exists implements Source with HEAD /<index>.
func (o *OpenSearch) Exists(ctx context.Context, index string) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, o.client)
	if err != nil {
		return false, fmt.Errorf("index exists check on %s: %w", o.addr, err)
	}
	defer drain(res.Body)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("index exists check on %s: unexpected status %d", o.addr, res.StatusCode)
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchAll implements Source with a match_all search.
func (o *OpenSearch) SearchAll(ctx context.Context, index string) ([]Document, error) {
	body := fmt.Sprintf(`{"query":{"match_all":{}},"size":%d}`, o.maxDocs)
	res, err := opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(body),
	}.Do(ctx, o.client)
	if err != nil {
		return nil, fmt.Errorf("search %s on %s: %w", index, o.addr, err)
	}
	defer drain(res.Body)

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("search %s on %s: status %d: %s", index, o.addr, res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]Document, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		if len(hit.Source) == 0 {
			continue
		}
		fields, err := decodeObject(hit.Source)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", hit.ID, err)
		}
		docs = append(docs, Document{ID: hit.ID, Fields: fields})
	}
	return docs, nil
}

// Close releases idle connections.
func (o *OpenSearch) Close() error {
	o.transport.CloseIdleConnections()
	return nil
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

var _ Source = (*OpenSearch)(nil)
