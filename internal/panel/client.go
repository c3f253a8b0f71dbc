package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the structured outcome of a panel API call. Failures are folded
// into an error-status result rather than surfaced as Go errors, so chat-facing
// code can render them directly.
type Result struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

func errorResult(msg string, err error) Result {
	r := Result{Status: StatusError, Message: msg}
	if err != nil {
		r.Detail = err.Error()
	}
	return r
}

// Client talks to an MCSManager-style panel: file reads/writes under
// /api/files and command execution under /api/protected_instance/command,
// authenticated by an apikey query parameter.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the remote API can be called at all. A missing
// configuration disables the dependent features, it is not an error.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

func (c *Client) commandURL() string {
	return strings.Replace(c.baseURL, "/api/files", "/api/protected_instance/command", 1)
}

// GetFile reads a remote file through GET /api/files/.
func (c *Client) GetFile(ctx context.Context, daemonID, uuid, target string) Result {
	if !c.Configured() {
		log.Printf("file API request skipped: configuration missing")
		return Result{Status: StatusError, Message: "文件API配置缺失"}
	}
	q := url.Values{
		"apikey":   {c.apiKey},
		"daemonId": {daemonID},
		"uuid":     {uuid},
		"target":   {target},
	}
	return c.do(ctx, http.MethodGet, c.baseURL, q, nil)
}

// PutFile issues PUT /api/files/ with the target path in the JSON body; the
// panel answers with the file content. The log tailer fetches through this.
func (c *Client) PutFile(ctx context.Context, daemonID, uuid, target string) Result {
	if !c.Configured() {
		log.Printf("file API request skipped: configuration missing")
		return Result{Status: StatusError, Message: "文件API配置缺失"}
	}
	q := url.Values{
		"apikey":   {c.apiKey},
		"daemonId": {daemonID},
		"uuid":     {uuid},
	}
	body := map[string]string{"target": target}
	return c.do(ctx, http.MethodPut, c.baseURL, q, body)
}

// ExecuteCommand runs a console command on the given instance.
func (c *Client) ExecuteCommand(ctx context.Context, daemonID, uuid, command string) Result {
	if !c.Configured() {
		log.Printf("command API request skipped: configuration missing")
		return Result{Status: StatusError, Message: "文件API配置缺失"}
	}
	q := url.Values{
		"apikey":   {c.apiKey},
		"daemonId": {daemonID},
		"uuid":     {uuid},
		"command":  {command},
	}
	return c.do(ctx, http.MethodGet, c.commandURL(), q, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, q url.Values, body interface{}) Result {
	full := rawURL
	if len(q) > 0 {
		full += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errorResult("请求失败: 无法编码请求体", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, reader)
	if err != nil {
		return errorResult("请求失败: 无法构造请求", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Printf("❌ panel API request failed: %v", err)
		return errorResult(fmt.Sprintf("请求失败: %v", err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult(fmt.Sprintf("请求失败: %v", err), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ panel API returned HTTP %d", resp.StatusCode)
		return errorResult(fmt.Sprintf("请求失败: HTTP %d", resp.StatusCode), nil)
	}

	out := Result{Status: StatusSuccess}
	if len(data) > 0 {
		var parsed interface{}
		if err := json.Unmarshal(data, &parsed); err != nil {
			// Some panels answer file reads with the raw text.
			out.Data = string(data)
		} else {
			out.Data = parsed
		}
	}
	return out
}

// LogContent extracts log text from a PutFile result, accepting both the
// wrapped {status, data} response shape and raw-string data.
func LogContent(r Result) string {
	if r.Status != StatusSuccess {
		return ""
	}
	switch d := r.Data.(type) {
	case string:
		return d
	case map[string]interface{}:
		if s, ok := d["data"].(string); ok {
			return s
		}
	}
	return ""
}
