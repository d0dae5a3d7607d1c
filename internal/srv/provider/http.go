package provider

import (
	"bytes"
	"context"
	"fmt"
	"github.com/jypelle/btclcd/apimodel"
	"github.com/jypelle/btclcd/internal/version"
	jsoniter "github.com/json-iterator/go"
	"io"
	"net/http"
	"strings"
	"time"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodySize bounds what we accept from an upstream service
const maxBodySize = 1 << 20

func newHttpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type basicAuth struct {
	username string
	password string
}

// do sends the request and decodes a JSON answer into out. A []byte body is
// sent as is, any other body is encoded to JSON.
func do(ctx context.Context, client *http.Client, method string, url string, auth *basicAuth, body interface{}, out interface{}) error {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reqBody = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", version.AppVersion.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil && (auth.username != "" || auth.password != "") {
		req.SetBasicAuth(auth.username, auth.password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return err
	}

	// bitcoind answers RPC errors with a 500 and a JSON body
	if resp.StatusCode != http.StatusOK && !(resp.StatusCode == http.StatusInternalServerError && isJson(resp)) {
		return &apimodel.StatusError{ErrStatusCode: resp.StatusCode, ErrMessage: http.StatusText(resp.StatusCode)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unable to decode %s answer: %w", url, err)
	}
	return nil
}

func isJson(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
}
