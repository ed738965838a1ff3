// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_avatar_viewer/pkg/domain/model"
	"github.com/miu200521358/mu_avatar_viewer/pkg/usecase/port/moutput"
)

// LoadAsset はアセットを読み込む。repがnilの場合は依存注入済みリーダを使う。
func (uc *AvatarViewerUsecase) LoadAsset(rep moutput.IAssetReader, path string) (*model.Asset, error) {
	reader := rep
	if reader == nil {
		reader = uc.assetReader
	}
	if reader == nil {
		return nil, fmt.Errorf("アセット読み込みリポジトリが設定されていません")
	}
	if !reader.CanLoad(path) {
		return nil, fmt.Errorf("入力形式が未対応です: %s", path)
	}
	asset, err := reader.Load(path)
	if err != nil {
		return nil, err
	}
	if asset == nil || asset.Root == nil {
		return nil, fmt.Errorf("アセット読み込み結果が空です")
	}
	if asset.Document == nil {
		return nil, fmt.Errorf("宣言的アセット記述が見つかりません")
	}
	return asset, nil
}
