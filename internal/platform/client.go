package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client — Service поверх HTTP: POST {base}/rpc/initPFList и /rpc/saveRecord
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) InitList(ctx context.Context, req *FetchRequest) (*FetchResponse, error) {
	var resp FetchResponse
	if err := c.call(ctx, "initPFList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SaveRecord(ctx context.Context, req *SaveRequest) (*SaveResult, error) {
	var res SaveResult
	if err := c.call(ctx, "saveRecord", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/rpc/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if res.StatusCode/100 != 2 {
		return remoteError(method, res.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	return nil
}

// remoteError достаёт из тела ошибки код и сообщение.
// Понимает {"error":{"errorCode","message","fields"}}, {"error":"..."} и [{"errorCode","message"}].
func remoteError(method string, status int, body []byte) error {
	e := &Error{}
	if status == http.StatusNotFound {
		e.Err = ErrNotFound
	} else if status/100 == 4 {
		e.Err = ErrInvalid
	}

	switch errNode := gjson.GetBytes(body, "error"); {
	case errNode.IsObject():
		e.Code = errNode.Get("errorCode").String()
		e.Message = errNode.Get("message").String()
		for _, f := range errNode.Get("fields").Array() {
			e.Fields = append(e.Fields, ferr(f.Get("code").String(), f.Get("field").String(), f.Get("message").String()))
		}
	case errNode.Exists():
		e.Message = errNode.String()
	default:
		if first := gjson.GetBytes(body, "0"); first.IsObject() {
			e.Code = first.Get("errorCode").String()
			e.Message = first.Get("message").String()
		} else {
			e.Message = gjson.GetBytes(body, "message").String()
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%s: HTTP %d", method, status)
	}
	return e
}
