// 指示: miu200521358
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/miu200521358/mu_avatar_viewer/pkg/adapter/io_asset/gltfasset"
	"github.com/miu200521358/mu_avatar_viewer/pkg/adapter/io_texture/filetexture"
	"github.com/miu200521358/mu_avatar_viewer/pkg/adapter/render"
	"github.com/miu200521358/mu_avatar_viewer/pkg/shared/logging"
	"github.com/miu200521358/mu_avatar_viewer/pkg/usecase/minteractor"
)

// composeWaitTimeout は非同期外観合成の完了待ち上限を表す。
const composeWaitTimeout = 30 * time.Second

// options はCLI引数を保持する。
type options struct {
	inputPath  string
	selector   string
	cloneCount int
	textureDir string
	verbose    bool
}

// main はアバターアセットの読込・準備・クローン・外観合成を実行する。
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	opts, err := parseOptions(args, errOut)
	if err != nil {
		return err
	}
	if opts.verbose {
		logger := logging.DefaultLogger()
		logger.SetLevel(logging.LOG_LEVEL_DEBUG)
		logger.EnableVerbose(logging.VERBOSE_VIEWER)
		logger.EnableVerbose(logging.VERBOSE_CLONE)
		logger.EnableVerbose(logging.VERBOSE_COMPOSE)
	}

	uc := minteractor.NewAvatarViewerUsecase(minteractor.AvatarViewerUsecaseDeps{
		AssetReader:   gltfasset.NewGltfAssetRepository(),
		TextureLoader: filetexture.NewFileTextureLoader(opts.textureDir, 0),
		RenderDevice:  render.NewSoftwareDevice(),
	})

	fmt.Fprintf(out, "[mu_avatar_viewer] 読み込み開始: %s\n", opts.inputPath)
	asset, err := uc.LoadAsset(nil, opts.inputPath)
	if err != nil {
		return fmt.Errorf("アセット読み込みに失敗しました: %w", err)
	}

	prepared, err := uc.PrepareInstance(minteractor.PrepareRequest{
		Asset:         asset,
		MaterialRules: minteractor.NewAvatarMaterialRules(),
	})
	if err != nil {
		return fmt.Errorf("準備パスに失敗しました: %w", err)
	}
	fmt.Fprintf(out, "[mu_avatar_viewer] 準備完了: nodes=%d backfaces=%d\n",
		prepared.Instance.Root().CountNodes(), prepared.BackfaceCount)

	instances := []*minteractor.AvatarInstance{prepared.Instance}
	for i := 1; i < opts.cloneCount; i++ {
		clone, err := uc.CloneInstance(prepared.Instance)
		if err != nil {
			return fmt.Errorf("インスタンス複製に失敗しました: %w", err)
		}
		instances = append(instances, clone)
	}
	fmt.Fprintf(out, "[mu_avatar_viewer] インスタンス数: %d\n", len(instances))

	for _, instance := range instances {
		result, err := uc.ComposeAppearance(minteractor.ComposeRequest{
			Instance: instance,
			Selector: opts.selector,
		})
		if err != nil {
			return fmt.Errorf("外観合成に失敗しました: %w", err)
		}
		fmt.Fprintf(out, "[mu_avatar_viewer] 合成開始: instance=%s variant=%s state=%s\n",
			instance.ID(), result.VariantBase, result.State)
	}

	if err := pumpCompletions(uc, instances); err != nil {
		return err
	}

	for _, instance := range instances {
		fmt.Fprintf(out, "[mu_avatar_viewer] 合成結果: instance=%s state=%s\n",
			instance.ID(), instance.CompositionState())
	}
	fmt.Fprintf(out, "[mu_avatar_viewer] 完了: %s\n", opts.inputPath)
	return nil
}

// pumpCompletions は全インスタンスの合成完了まで完了キューを処理し続ける。
func pumpCompletions(uc *minteractor.AvatarViewerUsecase, instances []*minteractor.AvatarInstance) error {
	ctx, cancel := context.WithTimeout(context.Background(), composeWaitTimeout)
	defer cancel()

	for anyComposing(instances) {
		if err := uc.WaitCompletion(ctx); err != nil {
			return fmt.Errorf("外観合成の完了待ちがタイムアウトしました: %w", err)
		}
		uc.ProcessCompletions()
	}
	return nil
}

// anyComposing は外観合成中のインスタンスが残っているかを返す。
func anyComposing(instances []*minteractor.AvatarInstance) bool {
	for _, instance := range instances {
		state := instance.CompositionState()
		if state == minteractor.CompositionStateVariantSelected ||
			state == minteractor.CompositionStateComposingAppearance {
			return true
		}
	}
	return false
}

// parseOptions はCLI引数を解析する。
func parseOptions(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("mu_avatar_viewer", flag.ContinueOnError)
	fs.SetOutput(errOut)

	in := fs.String("in", "", "入力アセットファイルパス (.glb/.gltf)")
	selector := fs.String("outfit", "", "バリアント選択子 (例: outfit_1 または outfit_1|3)")
	count := fs.Int("count", 1, "表示インスタンス数")
	texDir := fs.String("texdir", "", "テクスチャ探索ルートディレクトリ")
	verbose := fs.Bool("verbose", false, "詳細ログを有効化する")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if *in == "" && fs.NArg() > 0 {
		*in = fs.Arg(0)
	}
	if *in == "" {
		return options{}, fmt.Errorf("入力アセットファイルを指定してください (-in)")
	}

	ext := filepath.Ext(*in)
	if !strings.EqualFold(ext, ".glb") && !strings.EqualFold(ext, ".gltf") {
		return options{}, fmt.Errorf("入力拡張子が .glb/.gltf ではありません: %s", *in)
	}
	if *count < 1 {
		return options{}, fmt.Errorf("表示インスタンス数は1以上を指定してください: %d", *count)
	}
	if *texDir == "" {
		*texDir = filepath.Dir(*in)
	}

	return options{
		inputPath:  *in,
		selector:   *selector,
		cloneCount: *count,
		textureDir: *texDir,
		verbose:    *verbose,
	}, nil
}
