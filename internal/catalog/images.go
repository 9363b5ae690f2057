package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxImageBytes 限制单张图片的大小
const maxImageBytes = 10 << 20

// ImageFetcher 从图片站解析封面地址并下载图片，所有请求经过 Gate
type ImageFetcher struct {
	http *http.Client
	gate *Gate
	dir  string
}

func NewImageFetcher(httpClient *http.Client, gate *Gate, dir string) *ImageFetcher {
	return &ImageFetcher{http: httpClient, gate: gate, dir: dir}
}

// ResolveCover 从游戏页面中找出封面图片的绝对地址。
// 优先使用 og:image，其次是 img.cover。找不到时返回空串。
func (f *ImageFetcher) ResolveCover(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("无效的页面地址 %q: %w", pageURL, err)
	}

	var src string
	err = f.gate.Do(ctx, func(ctx context.Context) error {
		resp, err := f.get(ctx, pageURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return err
		}
		if v, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
			src = strings.TrimSpace(v)
		}
		if src == "" {
			if v, ok := doc.Find("img.cover").First().Attr("src"); ok {
				src = strings.TrimSpace(v)
			}
		}
		return nil
	})
	if err != nil || src == "" {
		return "", err
	}

	ref, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("无效的封面地址 %q: %w", src, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Download 把图片保存为 name 加原扩展名，返回文件名
func (f *ImageFetcher) Download(ctx context.Context, imageURL, name string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("无效的图片地址 %q: %w", imageURL, err)
	}
	ext := strings.ToLower(path.Ext(u.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
	default:
		ext = ".jpg"
	}
	filename := name + ext

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", err
	}

	err = f.gate.Do(ctx, func(ctx context.Context) error {
		resp, err := f.get(ctx, imageURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		tmp, err := os.CreateTemp(f.dir, filename+".*.tmp")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxImageBytes+1))
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		if n > maxImageBytes {
			return fmt.Errorf("图片超过 %d 字节", maxImageBytes)
		}
		return os.Rename(tmp.Name(), filepath.Join(f.dir, filename))
	})
	if err != nil {
		return "", fmt.Errorf("下载图片 %s: %w", imageURL, err)
	}
	return filename, nil
}

func (f *ImageFetcher) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s 返回 %d", target, resp.StatusCode)
	}
	return resp, nil
}
