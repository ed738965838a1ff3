// 指示: miu200521358
package minteractor

import (
	"errors"
	"testing"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
)

// fakeAssetReader はテスト用のアセットリーダを表す。
type fakeAssetReader struct {
	canLoad bool
	asset   *model.Asset
	err     error
}

func (r *fakeAssetReader) CanLoad(path string) bool {
	return r.canLoad
}

func (r *fakeAssetReader) Load(path string) (*model.Asset, error) {
	return r.asset, r.err
}

func TestLoadAssetReturnsReaderResult(t *testing.T) {
	asset := buildAvatarTestAsset()
	uc := NewAvatarViewerUsecase(AvatarViewerUsecaseDeps{
		AssetReader: &fakeAssetReader{canLoad: true, asset: asset},
	})

	loaded, err := uc.LoadAsset(nil, "avatar.glb")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != asset {
		t.Fatalf("loaded asset mismatch")
	}
}

func TestLoadAssetPrefersExplicitReader(t *testing.T) {
	fallback := &fakeAssetReader{canLoad: true, asset: buildAvatarTestAsset()}
	uc := NewAvatarViewerUsecase(AvatarViewerUsecaseDeps{AssetReader: fallback})

	explicit := buildAvatarTestAsset()
	loaded, err := uc.LoadAsset(&fakeAssetReader{canLoad: true, asset: explicit}, "avatar.glb")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != explicit {
		t.Fatalf("explicit reader should be used")
	}
}

func TestLoadAssetRejectsUnsupportedPath(t *testing.T) {
	uc := NewAvatarViewerUsecase(AvatarViewerUsecaseDeps{
		AssetReader: &fakeAssetReader{canLoad: false},
	})
	if _, err := uc.LoadAsset(nil, "avatar.fbx"); err == nil {
		t.Fatalf("expected error for unsupported path")
	}
}

func TestLoadAssetWithoutReaderFails(t *testing.T) {
	uc := NewAvatarViewerUsecase(AvatarViewerUsecaseDeps{})
	if _, err := uc.LoadAsset(nil, "avatar.glb"); err == nil {
		t.Fatalf("expected error for missing reader")
	}
}

func TestLoadAssetPropagatesReaderError(t *testing.T) {
	wantErr := errors.New("broken file")
	uc := NewAvatarViewerUsecase(AvatarViewerUsecaseDeps{
		AssetReader: &fakeAssetReader{canLoad: true, err: wantErr},
	})
	if _, err := uc.LoadAsset(nil, "avatar.glb"); !errors.Is(err, wantErr) {
		t.Fatalf("reader error should propagate: got=%v", err)
	}
}

func TestLoadAssetRejectsIncompleteResult(t *testing.T) {
	uc := NewAvatarViewerUsecase(AvatarViewerUsecaseDeps{
		AssetReader: &fakeAssetReader{canLoad: true, asset: &model.Asset{Root: model.NewNode("avatar")}},
	})
	if _, err := uc.LoadAsset(nil, "avatar.glb"); err == nil {
		t.Fatalf("expected error for missing document")
	}
}
