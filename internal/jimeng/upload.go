package jimeng

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ImageInput 调用方提供的单张图片。Data 优先；否则 Source 按远程 URL 或本地
// 缓存路径解释（以路径分隔符开头且文件存在的视为本地路径）。
type ImageInput struct {
	Source string
	Data   []byte
}

// Uploader 素材上传原语。传入字节缓冲，换回后端资源 uri。
type Uploader interface {
	UploadBuffer(ctx context.Context, data []byte, cred Credential) (string, error)
}

// uploadPolicy 每种任务模式的上传边界与失败容忍策略。
//
// tolerateFrom 是允许失败的最小下标；-1 表示任何一张失败都立即中止。
type uploadPolicy struct {
	kind         TaskKind
	minImages    int
	maxImages    int
	tolerateFrom int
}

var (
	blendUploadPolicy = uploadPolicy{kind: TaskKindImage, minImages: minBlendImages, maxImages: maxBlendImages, tolerateFrom: -1}
	videoUploadPolicy = uploadPolicy{kind: TaskKindVideo, minImages: 1, maxImages: maxVideoFrames, tolerateFrom: 1}
)

// uploadAll pushes every input through the buffer-upload primitive, strictly
// sequentially so upload order maps 1:1 onto ability/frame slots downstream.
// Bounds are checked before any upload is attempted. A failure at an index
// below the policy's tolerance threshold aborts the whole task; a tolerated
// failure is logged and the slot dropped.
func (s *Service) uploadAll(ctx context.Context, inputs []ImageInput, cred Credential, policy uploadPolicy) ([]string, error) {
	if len(inputs) < policy.minImages || len(inputs) > policy.maxImages {
		return nil, newError(KindValidation, "%s task accepts %d-%d images, got %d",
			policy.kind, policy.minImages, policy.maxImages, len(inputs))
	}

	uris := make([]string, 0, len(inputs))
	for idx, input := range inputs {
		uri, err := s.uploadOne(ctx, input, cred)
		if err != nil {
			if policy.tolerateFrom >= 0 && idx >= policy.tolerateFrom {
				logrus.WithError(err).WithFields(logrus.Fields{
					"index": idx,
					"kind":  policy.kind,
				}).Warn("jimeng_upload_tolerated_failure")
				continue
			}
			return nil, wrapError(KindUpload, err, "upload image %d", idx)
		}
		uris = append(uris, uri)
	}
	return uris, nil
}

// uploadOne normalizes one input shape into bytes and runs the buffer upload.
func (s *Service) uploadOne(ctx context.Context, input ImageInput, cred Credential) (string, error) {
	data, err := s.resolveImageBytes(ctx, input)
	if err != nil {
		return "", err
	}
	return s.uploader.UploadBuffer(ctx, data, cred)
}

func (s *Service) resolveImageBytes(ctx context.Context, input ImageInput) ([]byte, error) {
	if len(input.Data) > 0 {
		return input.Data, nil
	}

	source := strings.TrimSpace(input.Source)
	if source == "" {
		return nil, fmt.Errorf("empty image input")
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err := s.client.getBytes(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("fetch remote image: %w", err)
		}
		return data, nil
	}

	// 本地缓存路径：以分隔符开头并且文件确实存在
	if strings.HasPrefix(source, "/") || strings.HasPrefix(source, "./") {
		if _, err := os.Stat(source); err != nil {
			return nil, fmt.Errorf("local image %s: %w", source, err)
		}
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read local image: %w", err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("unrecognized image source %q", logSnippet(source))
}

// vendorUploader 默认上传实现：先领上传票据，再把字节推到票据指定的主机。
type vendorUploader struct {
	client *Client
}

// NewVendorUploader 返回走后端素材通道的 Uploader。
func NewVendorUploader(client *Client) Uploader {
	return &vendorUploader{client: client}
}

type uploadToken struct {
	AccessKey  string `json:"access_key_id"`
	SecretKey  string `json:"secret_access_key"`
	Token      string `json:"session_token"`
	ServiceID  string `json:"service_id"`
	UploadHost string `json:"upload_host"`
}

func (u *vendorUploader) UploadBuffer(ctx context.Context, data []byte, cred Credential) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload buffer")
	}

	resp, err := u.client.call(ctx, http.MethodPost, "/mweb/v1/get_upload_token", cred, callOptions{
		Body: map[string]any{"scene": 2},
	})
	if err != nil {
		return "", fmt.Errorf("get upload token: %w", err)
	}

	var token uploadToken
	if err := json.Unmarshal(resp.Data, &token); err != nil {
		return "", fmt.Errorf("decode upload token: %w", err)
	}
	if token.UploadHost == "" || token.ServiceID == "" {
		return "", fmt.Errorf("upload token missing host or service id")
	}

	uri, err := u.pushBytes(ctx, token, data)
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"uri":        uri,
		"size_bytes": len(data),
	}).Debug("jimeng_upload_done")
	return uri, nil
}

// pushBytes 向素材主机提交一次性上传并取回资源 uri。
func (u *vendorUploader) pushBytes(ctx context.Context, token uploadToken, data []byte) (string, error) {
	params := url.Values{}
	params.Set("Action", "CommitImageUpload")
	params.Set("ServiceId", token.ServiceID)
	endpoint := "https://" + token.UploadHost + "/upload/v1/" + token.ServiceID + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", token.AccessKey+":"+token.Token)

	resp, err := u.client.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("push upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload host returned http %d", resp.StatusCode)
	}

	var result struct {
		Result struct {
			URI string `json:"uri"`
		} `json:"Result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload result: %w", err)
	}
	if result.Result.URI == "" {
		return "", fmt.Errorf("upload result missing uri")
	}
	return result.Result.URI, nil
}
