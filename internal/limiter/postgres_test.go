package limiter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/************ fake pgx ************/
type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeDB struct {
	qrErr         error
	qrBlockedTill *time.Time
	qrFailsRet    int

	lastExecSQL  string
	lastExecArgs []any
	execErr      error
}

var _ Querier = (*fakeDB)(nil)

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastExecSQL, f.lastExecArgs = sql, args
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "SELECT blocked_until"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			if f.qrBlockedTill != nil {
				*(dest[0].(*time.Time)) = *f.qrBlockedTill
			} else {
				*(dest[0].(*time.Time)) = time.Time{} // 'epoch'
			}
			return nil
		}}
	case strings.Contains(sql, "RETURNING fail_count"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			*(dest[0].(*int)) = f.qrFailsRet
			return nil
		}}
	default:
		return fakeRow{scan: func(dest ...any) error { return errors.New("unexpected query") }}
	}
}

func TestPG_Allow_NoRow_Allows(t *testing.T) {
	l := NewPG(&fakeDB{qrErr: pgx.ErrNoRows}, DefaultPolicy)

	ok, dur, err := l.Allow(context.Background(), "a@b.c", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow no-row: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestPG_Allow_BlockedUntilFuture(t *testing.T) {
	fut := time.Now().Add(10 * time.Minute)
	l := NewPG(&fakeDB{qrBlockedTill: &fut}, DefaultPolicy)

	ok, dur, err := l.Allow(context.Background(), "a@b.c", []byte("h"))
	if err != nil || ok || dur <= 0 {
		t.Fatalf("Allow blocked: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestPG_Allow_PastOrEpoch_Allows(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	l := NewPG(&fakeDB{qrBlockedTill: &past}, DefaultPolicy)

	ok, dur, err := l.Allow(context.Background(), "a@b.c", []byte("h"))
	if err != nil || !ok || dur != 0 {
		t.Fatalf("Allow past: ok=%v dur=%v err=%v", ok, dur, err)
	}
}

func TestPG_Allow_DBError_Propagates(t *testing.T) {
	l := NewPG(&fakeDB{qrErr: errors.New("db boom")}, DefaultPolicy)

	ok, _, err := l.Allow(context.Background(), "a@b.c", []byte("h"))
	if err == nil || ok {
		t.Fatalf("want error propagate, got ok=%v err=%v", ok, err)
	}
}

func TestPG_Success(t *testing.T) {
	fp := &fakeDB{}
	l := NewPG(fp, DefaultPolicy)

	if err := l.Success(context.Background(), "a@b.c", []byte("h")); err != nil {
		t.Fatalf("success err: %v", err)
	}
	if !strings.Contains(fp.lastExecSQL, "INSERT INTO signin_attempts") {
		t.Fatalf("unexpected exec: %s", fp.lastExecSQL)
	}

	fp.execErr = errors.New("exec fail")
	if err := l.Success(context.Background(), "a@b.c", []byte("h")); err == nil {
		t.Fatalf("want exec error")
	}
}

func TestPG_Failure_Increments_NoBlock(t *testing.T) {
	l := NewPG(&fakeDB{qrFailsRet: 2}, Policy{Window: 5 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute})

	blocked, dur, err := l.Failure(context.Background(), "a@b.c", []byte("h"))
	if err != nil || blocked || dur != 0 {
		t.Fatalf("Failure no block: blocked=%v dur=%v err=%v", blocked, dur, err)
	}
}

func TestPG_Failure_BlocksAtThreshold(t *testing.T) {
	fp := &fakeDB{qrFailsRet: 5}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := NewPG(fp, Policy{Window: 5 * time.Minute, MaxFails: 5, BlockFor: 10 * time.Minute})
	l.now = func() time.Time { return fixed }

	blocked, dur, err := l.Failure(context.Background(), "a@b.c", []byte("h"))
	if err != nil || !blocked || dur != 10*time.Minute {
		t.Fatalf("Failure block: blocked=%v dur=%v err=%v", blocked, dur, err)
	}
	if !strings.Contains(fp.lastExecSQL, "UPDATE signin_attempts SET blocked_until") {
		t.Fatalf("must update blocked_until, exec=%s", fp.lastExecSQL)
	}
	if got := fp.lastExecArgs[2].(time.Time); !got.Equal(fixed.Add(10 * time.Minute)) {
		t.Fatalf("blocked_until=%v", got)
	}
}

func TestPG_Failure_DBErrorOnReturning(t *testing.T) {
	l := NewPG(&fakeDB{qrErr: errors.New("query error")}, DefaultPolicy)

	if _, _, err := l.Failure(context.Background(), "a@b.c", []byte("h")); err == nil {
		t.Fatalf("want error from returning fail_count")
	}
}

func TestHashIP_Determinism(t *testing.T) {
	a := HashIP("1.2.3.4:123")
	b := HashIP("1.2.3.4:456")
	c := HashIP("5.6.7.8:321")
	d := HashIP("1.2.3.4")
	if string(a) != string(b) || string(a) != string(d) || string(a) == string(c) || len(a) != 32 {
		t.Fatalf("hash mismatch/len: %d", len(a))
	}
}
