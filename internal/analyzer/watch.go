package analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatchInPlace 监听模式下结果不能写回源文件，否则每次保存都会再次触发
var ErrWatchInPlace = errors.New("watch requires an output path different from the workbook")

// Watch 监听工作簿所在目录，文件保存后（静默 debounce 时长）重新分析
//
// 监听目录而非文件本身：Excel 等编辑器通过临时文件加重命名保存。
// 每次运行的结果交给 onRun；运行失败不会终止监听。ctx 取消时返回 nil。
func (s *Service) Watch(ctx context.Context, opts Options, debounce time.Duration, onRun func(*Result, error)) error {
	src, err := filepath.Abs(opts.FilePath)
	if err != nil {
		return err
	}
	if opts.OutputPath == "" {
		return ErrWatchInPlace
	}
	if dst, err := filepath.Abs(opts.OutputPath); err == nil && dst == src {
		return ErrWatchInPlace
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(src)); err != nil {
		return err
	}
	s.log.Info().Str("workbook", src).Msg("watching for changes")

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != src || strings.HasPrefix(filepath.Base(event.Name), "~$") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			resetTimer(timer, debounce)

		case <-timer.C:
			res, err := s.Run(ctx, opts, nil)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			onRun(res, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// resetTimer 重置前丢弃已到期但未读取的触发，保证每次事件后都完整等待 d
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
