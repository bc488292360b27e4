package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchRejectsInPlaceOutput(t *testing.T) {
	svc, _ := newService(t)
	path := writeWorkbook(t, "Sprint 9", scenarioItems())

	for _, out := range []string{"", path} {
		err := svc.Watch(context.Background(), Options{FilePath: path, OutputPath: out}, time.Millisecond, func(*Result, error) {})
		if !errors.Is(err, ErrWatchInPlace) {
			t.Fatalf("out=%q: err = %v", out, err)
		}
	}
}

func TestWatchRerunsOnSave(t *testing.T) {
	svc, _ := newService(t)
	path := writeWorkbook(t, "Sprint 9", scenarioItems())
	out := filepath.Join(t.TempDir(), "report.xlsx")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, Options{FilePath: path, OutputPath: out}, 20*time.Millisecond, func(_ *Result, err error) {
			select {
			case runs <- err:
			default:
			}
		})
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// 监听器启动前的写入可能被错过，循环重写直到触发
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for triggered := false; !triggered; {
		select {
		case err := <-runs:
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			triggered = true
		case <-tick.C:
			if err := os.WriteFile(path, data, 0644); err != nil {
				t.Fatalf("rewrite: %v", err)
			}
		case <-deadline:
			t.Fatalf("no run after workbook change")
		}
	}

	if _, err := os.Stat(out); err != nil {
		t.Fatalf("report not written: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Watch did not stop after cancel")
	}
}

// 到期未读的触发不能让下一次等待提前结束
func TestResetTimerDropsExpiredTick(t *testing.T) {
	timer := time.NewTimer(time.Millisecond)
	defer timer.Stop()
	time.Sleep(20 * time.Millisecond)

	resetTimer(timer, time.Hour)
	select {
	case <-timer.C:
		t.Fatalf("stale tick delivered after reset")
	case <-time.After(20 * time.Millisecond):
	}
}
