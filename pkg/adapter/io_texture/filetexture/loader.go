// 指示: miu200521358
// Package filetexture はファイルシステムからの非同期テクスチャ読込アダプタを提供する。
package filetexture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
	"github.com/miu200521358/mu_avatar_viewer/pkg/shared/logging"
	"github.com/miu200521358/mu_avatar_viewer/pkg/usecase/port/moutput"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
)

const defaultMaxParallelDecodes = 4

// 法線マップはリニア色空間で扱う。名前サフィックスで判定する。
const normalMapPathToken = "_normal_map"

// FileTextureLoader はルートディレクトリ配下のテクスチャを非同期に読み込む。
// 同時デコード数はセマフォで制限する。
type FileTextureLoader struct {
	rootDir string
	sem     *semaphore.Weighted
}

// NewFileTextureLoader はFileTextureLoaderを生成する。
// maxParallelが0以下の場合は既定の並列数を使う。
func NewFileTextureLoader(rootDir string, maxParallel int) *FileTextureLoader {
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallelDecodes
	}
	return &FileTextureLoader{
		rootDir: rootDir,
		sem:     semaphore.NewWeighted(int64(maxParallel)),
	}
}

// LoadAsync はテクスチャ取得を開始し、完了時にdeliverを一度だけ呼び出す。
// deliverは読込ゴルーチンから呼ばれるため、呼び出し側が配送し直す。
func (l *FileTextureLoader) LoadAsync(path string, deliver func(result moutput.TextureResult)) {
	if deliver == nil {
		return
	}
	go func() {
		if err := l.sem.Acquire(context.Background(), 1); err != nil {
			deliver(moutput.TextureResult{Path: path, Err: err})
			return
		}
		defer l.sem.Release(1)

		texture, err := l.loadTexture(path)
		if err != nil {
			logTextureWarn("テクスチャ読込失敗: path=%s error=%v", path, err)
		}
		deliver(moutput.TextureResult{Path: path, Texture: texture, Err: err})
	}()
}

// loadTexture はテクスチャファイルを同期的に読み込んでデコードする。
func (l *FileTextureLoader) loadTexture(path string) (*model.Texture, error) {
	resolved := path
	if l.rootDir != "" && !filepath.IsAbs(path) {
		resolved = filepath.Join(l.rootDir, path)
	}
	sourceBytes, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("テクスチャファイルの読み取りに失敗しました: %w", err)
	}

	extension := strings.ToLower(strings.TrimSpace(filepath.Ext(resolved)))
	img, err := decodeTextureBytesByExtension(sourceBytes, extension)
	if err != nil {
		return nil, fmt.Errorf("テクスチャデコードに失敗しました: %s: %w", path, err)
	}

	texture := model.NewTexture(textureNameFromPath(path), img)
	if strings.Contains(texture.Name, normalMapPathToken) {
		texture.ColorSpace = model.ColorSpaceLinear
	}
	return texture, nil
}

// decodeTextureBytesByExtension は拡張子指定で画像バイト列をデコードする。
func decodeTextureBytesByExtension(sourceBytes []byte, extension string) (image.Image, error) {
	reader := bytes.NewReader(sourceBytes)
	switch extension {
	case ".png":
		return png.Decode(reader)
	case ".jpg", ".jpeg":
		return jpeg.Decode(reader)
	case ".gif":
		return gif.Decode(reader)
	case ".bmp":
		return bmp.Decode(reader)
	case ".webp":
		return webp.Decode(reader)
	case ".tga":
		return tga.Decode(reader)
	default:
		return nil, fmt.Errorf("未対応画像拡張子です: %s", extension)
	}
}

// textureNameFromPath はパスからテクスチャ表示名を導出する。
func textureNameFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// logTextureWarn はテクスチャ読込の警告ログを出力する。
func logTextureWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}
