// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/miu200521358/mu_avatar_viewer/pkg/usecase/port/moutput"
)

// completionQueueCapacity は完了コールバック配送キューの容量を表す。
const completionQueueCapacity = 256

// AvatarViewerUsecaseDeps はアバタービューアユースケースの依存を表す。
type AvatarViewerUsecaseDeps struct {
	AssetReader   moutput.IAssetReader
	TextureLoader moutput.ITextureLoader
	RenderDevice  moutput.IRenderDevice
}

// AvatarViewerUsecase はアセット準備・クローン・外観合成をまとめたユースケースを表す。
// インスタンス登録簿と完了キューの取り出しは単一ロジックスレッドから行う前提とする。
type AvatarViewerUsecase struct {
	assetReader   moutput.IAssetReader
	textureLoader moutput.ITextureLoader
	renderDevice  moutput.IRenderDevice

	instances   map[uuid.UUID]*AvatarInstance
	completions chan func()
}

// NewAvatarViewerUsecase はアバタービューアユースケースを生成する。
func NewAvatarViewerUsecase(deps AvatarViewerUsecaseDeps) *AvatarViewerUsecase {
	return &AvatarViewerUsecase{
		assetReader:   deps.AssetReader,
		textureLoader: deps.TextureLoader,
		renderDevice:  deps.RenderDevice,
		instances:     map[uuid.UUID]*AvatarInstance{},
		completions:   make(chan func(), completionQueueCapacity),
	}
}

// registerInstance はインスタンスを生存登録簿へ追加する。
func (uc *AvatarViewerUsecase) registerInstance(instance *AvatarInstance) {
	if uc == nil || instance == nil {
		return
	}
	uc.instances[instance.ID()] = instance
}

// isInstanceAlive は指定IDのインスタンスが破棄されていないかを返す。
func (uc *AvatarViewerUsecase) isInstanceAlive(id uuid.UUID) bool {
	if uc == nil {
		return false
	}
	instance, ok := uc.instances[id]
	return ok && !instance.Discarded()
}

// DiscardInstance はインスタンスを破棄し、以後の取得完了を無効化する。
func (uc *AvatarViewerUsecase) DiscardInstance(instance *AvatarInstance) {
	if uc == nil || instance == nil {
		return
	}
	instance.markDiscarded()
	delete(uc.instances, instance.ID())
}

// EnqueueCompletion は完了コールバックをロジックスレッド配送キューへ積む。
func (uc *AvatarViewerUsecase) EnqueueCompletion(completion func()) {
	if uc == nil || completion == nil {
		return
	}
	uc.completions <- completion
}

// ProcessCompletions は滞留中の完了コールバックをすべて実行し、実行件数を返す。
func (uc *AvatarViewerUsecase) ProcessCompletions() int {
	if uc == nil {
		return 0
	}
	processed := 0
	for {
		select {
		case completion := <-uc.completions:
			completion()
			processed++
		default:
			return processed
		}
	}
}

// WaitCompletion は完了コールバックを1件待って実行する。
func (uc *AvatarViewerUsecase) WaitCompletion(ctx context.Context) error {
	if uc == nil {
		return fmt.Errorf("ユースケースが未初期化です")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case completion := <-uc.completions:
		completion()
		return nil
	}
}
