package backend

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tangzhangming/phosphor/internal/ir"
	"github.com/tangzhangming/phosphor/internal/lower"
)

// Unit 一个待编译的单元
type Unit struct {
	Module string // 限定模块名
	File   *ir.File
}

// Builder 并行编译多个单元并链接
type Builder struct {
	Backend   Backend
	Jobs      int    // 同时编译的单元数，<= 0 时为 1
	OutputDir string // 目标文件目录
	TempDir   string // 中间文件目录；为空时每次构建创建并删除临时目录
	KeepTemp  bool

	logger   *zap.Logger
	compiled atomic.Int32
	failed   atomic.Int32
}

// NewBuilder 创建构建器
func NewBuilder(b Backend, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{Backend: b, Jobs: 1, logger: logger}
}

// Stats 最近一次构建中成功与失败的单元数
func (b *Builder) Stats() (compiled, failed int) {
	return int(b.compiled.Load()), int(b.failed.Load())
}

// BuildAll 编译全部单元并链接为 output
//
// 降级在编译前串行完成（降级会在共享的符号表中分配标签），代码生成与汇编并行。
// 任一单元失败时不链接，返回所有单元的错误。
func (b *Builder) BuildAll(ctx context.Context, units []Unit, output string) (err error) {
	b.compiled.Store(0)
	b.failed.Store(0)

	tmp := b.TempDir
	if tmp == "" {
		tmp, err = os.MkdirTemp("", "phosphor-*")
		if err != nil {
			return err
		}
		if !b.KeepTemp {
			defer func() { err = multierr.Append(err, os.RemoveAll(tmp)) }()
		}
	}
	outDir := b.OutputDir
	if outDir == "" {
		outDir = tmp
	}

	files := make([]*ir.File, len(units))
	for i, u := range units {
		files[i] = lower.File(u.File)
	}

	jobs := b.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	sem := make(chan struct{}, jobs)
	objects := make([]string, len(units))
	errs := make([]error, len(units))

	var wg sync.WaitGroup
	for i := range units {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				b.failed.Inc()
				return
			}
			defer func() { <-sem }()

			obj, err := b.Backend.Compile(ctx, files[i], units[i].Module, outDir, tmp)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", units[i].Module, err)
				b.failed.Inc()
				return
			}
			objects[i] = obj
			b.compiled.Inc()
		}(i)
	}
	wg.Wait()

	compiled, failed := b.Stats()
	b.logger.Debug("compiled units", zap.Int("compiled", compiled), zap.Int("failed", failed), zap.Int("jobs", jobs))
	if err := multierr.Combine(errs...); err != nil {
		return err
	}

	runtime, err := b.Backend.Runtime(ctx, tmp)
	if err != nil {
		return err
	}
	return b.Backend.Link(ctx, objects, runtime, output)
}
