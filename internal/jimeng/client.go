package jimeng

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// Client 认证后的后端 HTTP 通道。超时策略由 http.Client 承担，本层不重试。
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a vendor transport with a conservative timeout. The
// backend occasionally stalls for tens of seconds on draft submission.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		userAgent:  defaultUserAgent,
	}
}

// apiResponse 后端统一响应壳。ret 为 "0" 表示成功。
type apiResponse struct {
	Ret    string          `json:"ret"`
	ErrMsg string          `json:"errmsg"`
	Data   json.RawMessage `json:"data"`

	// Raw keeps the full serialized body for the pattern-matching extraction
	// fallbacks; the vendor routinely ships fields the structs do not model.
	Raw []byte `json:"-"`
}

// callOptions 单次调用的可选参数
type callOptions struct {
	Params url.Values
	Body   any

	// CommerceHost routes the call to the commerce domain instead of the
	// generation domain.
	CommerceHost bool
}

// call issues an authenticated request against the vendor backend and decodes
// the response envelope. Non-2xx statuses and non-zero ret codes surface as
// KindTransport; nothing is retried here.
func (c *Client) call(ctx context.Context, method, path string, cred Credential, opts callOptions) (*apiResponse, error) {
	host := cred.Region.BaseURL
	if opts.CommerceHost {
		host = cred.Region.CommerceURL
	}

	params := url.Values{}
	for key, values := range opts.Params {
		for _, v := range values {
			params.Add(key, v)
		}
	}
	params.Set("aid", strconv.Itoa(cred.Region.AssistantID))
	params.Set("device_platform", "web")
	params.Set("region", strings.ToUpper(cred.Region.Code))
	params.Set("web_version", versionCode)

	endpoint := host + path + "?" + params.Encode()

	var bodyReader io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, wrapError(KindTransport, err, "marshal request body")
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, wrapError(KindTransport, err, "create request")
	}

	deviceTime := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cookie", "sessionid="+cred.SessionID+"; sessionid_ss="+cred.SessionID)
	req.Header.Set("Appid", strconv.Itoa(cred.Region.AssistantID))
	req.Header.Set("Appvr", versionCode)
	req.Header.Set("Pf", platformCode)
	req.Header.Set("Device-Time", deviceTime)
	req.Header.Set("Sign", requestSign(path, deviceTime))
	req.Header.Set("Sign-Ver", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapError(KindTransport, err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindTransport, err, "read response of %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(KindTransport, "%s returned http %d: %s", path, resp.StatusCode, logSnippet(string(raw)))
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, wrapError(KindTransport, err, "decode response of %s", path)
	}
	envelope.Raw = raw

	if envelope.Ret != "" && envelope.Ret != "0" {
		logrus.WithFields(logrus.Fields{
			"path":   path,
			"ret":    envelope.Ret,
			"errmsg": envelope.ErrMsg,
		}).Warn("jimeng_api_error")
		return nil, newError(KindTransport, "%s returned ret=%s: %s", path, envelope.Ret, envelope.ErrMsg)
	}

	return &envelope, nil
}

// getBytes downloads an arbitrary URL, for remote image inputs and result
// archiving.
func (c *Client) getBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", logSnippet(rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}
	return data, nil
}

// requestSign 计算请求签名。算法来自对 web 端的抓包观察，盐值写死在前端代码里。
func requestSign(path string, deviceTime string) string {
	uri := path
	if len(uri) > 7 {
		uri = uri[len(uri)-7:]
	}
	payload := strings.ToLower(fmt.Sprintf("9e2c|%s|%s|%s|%s||11ac", uri, platformCode, versionCode, deviceTime))
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// logSnippet truncates values for logging.
func logSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 120 {
		return s
	}
	return s[:120] + "..."
}
