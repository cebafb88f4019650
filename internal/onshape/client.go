// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package onshape is a thin authenticated client for the three Onshape REST
// operations cad-bridge uses: create a document, upload a blob element, and
// import that blob into a part studio.
//
// Every call is a single HTTP exchange. Non-2xx responses surface as
// *httputil.StatusError; an empty 2xx body is an empty result.
//
// Implements: docs/ARCHITECTURE § Document Client (steps 1-3).
package onshape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/pdiddy/cad-bridge/internal/httputil"
	"github.com/pdiddy/cad-bridge/internal/secrets"
	"github.com/pdiddy/cad-bridge/pkg/types"
)

// DefaultBaseURL is the Onshape REST root used when none is configured.
const DefaultBaseURL = "https://cad.onshape.com/api/v12"

// Client calls the Onshape REST API. It holds only values fixed at
// construction and is safe for concurrent use.
type Client struct {
	baseURL    string
	authHeader string
	userAgent  string
	http       *http.Client
}

// NewClient builds a Client from cfg and creds. When httpClient is nil a
// client with cfg.Timeout is created.
func NewClient(cfg types.APIConfig, creds secrets.Credentials, httpClient *http.Client) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", cfg.BaseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    base,
		authHeader: creds.BasicAuth(),
		userAgent:  cfg.UserAgent,
		http:       httpClient,
	}, nil
}

// createDocumentRequest is the body of POST /documents.
type createDocumentRequest struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

// documentResponse captures the fields we need from a created document.
type documentResponse struct {
	ID               string `json:"id"`
	DefaultWorkspace struct {
		ID string `json:"id"`
	} `json:"defaultWorkspace"`
}

// CreateDocument creates a new document and returns its id and default
// workspace id.
func (c *Client) CreateDocument(ctx context.Context, name string, public bool) (types.RemoteDocument, error) {
	var doc documentResponse
	err := c.postJSON(ctx, "/documents", createDocumentRequest{Name: name, Public: public}, &doc)
	if err != nil {
		return types.RemoteDocument{}, fmt.Errorf("creating document %q: %w", name, err)
	}
	if doc.ID == "" || doc.DefaultWorkspace.ID == "" {
		return types.RemoteDocument{}, fmt.Errorf("creating document %q: response missing id or default workspace", name)
	}
	return types.RemoteDocument{ID: doc.ID, DefaultWorkspaceID: doc.DefaultWorkspace.ID}, nil
}

// blobResponse captures the id of an uploaded blob element.
type blobResponse struct {
	ID string `json:"id"`
}

// UploadBlob uploads data as a blob element named fileName in the given
// document workspace.
func (c *Client) UploadBlob(ctx context.Context, docID, workspaceID, fileName string, data []byte) (types.BlobReference, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	if err != nil {
		return types.BlobReference{}, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return types.BlobReference{}, fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return types.BlobReference{}, fmt.Errorf("building upload form: %w", err)
	}

	path := fmt.Sprintf("/blobelements/d/%s/w/%s?encodedFilename=%s",
		url.PathEscape(docID), url.PathEscape(workspaceID), url.QueryEscape(fileName))

	req, err := c.newRequest(ctx, http.MethodPost, path, &body)
	if err != nil {
		return types.BlobReference{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var blob blobResponse
	if err := c.do(req, &blob); err != nil {
		return types.BlobReference{}, fmt.Errorf("uploading blob %s: %w", fileName, err)
	}
	if blob.ID == "" {
		return types.BlobReference{}, fmt.Errorf("uploading blob %s: response missing id", fileName)
	}
	return types.BlobReference{ID: blob.ID}, nil
}

// importRequest is the body of POST /partstudios/.../import.
type importRequest struct {
	Format               types.MeshFormat `json:"format"`
	BlobElementID        string           `json:"blobElementId"`
	ImportIntoPartStudio bool             `json:"importIntoPartStudio"`
	CreateNewPartStudio  bool             `json:"createNewPartStudio"`
}

// ImportBlob imports an uploaded blob into a part studio of the workspace,
// creating a new part studio when newPartStudio is set.
func (c *Client) ImportBlob(ctx context.Context, docID, workspaceID, blobID string, format types.MeshFormat, newPartStudio bool) error {
	path := fmt.Sprintf("/partstudios/d/%s/w/%s/import", url.PathEscape(docID), url.PathEscape(workspaceID))
	body := importRequest{
		Format:               format,
		BlobElementID:        blobID,
		ImportIntoPartStudio: true,
		CreateNewPartStudio:  newPartStudio,
	}
	if err := c.postJSON(ctx, path, body, nil); err != nil {
		return fmt.Errorf("importing blob %s: %w", blobID, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return httputil.DecodeJSON(resp, out)
}
