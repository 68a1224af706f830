package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(fakePinger{})
	svc.AddEmbeddingCheck("modal", fakeChecker{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if report.Checks["database"] != CheckOK {
		t.Errorf("expected database ok, got %s", report.Checks["database"])
	}
	if report.Checks["embedding:modal"] != CheckOK {
		t.Errorf("expected embedding:modal ok, got %s", report.Checks["embedding:modal"])
	}
}

func TestCheck_StoreDown(t *testing.T) {
	svc := New(fakePinger{err: errors.New("refused")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.Checks["database"] != CheckError {
		t.Errorf("expected database error, got %s", report.Checks["database"])
	}
}

func TestCheck_OneProviderDown(t *testing.T) {
	svc := New(fakePinger{})
	svc.AddEmbeddingCheck("modal", fakeChecker{})
	svc.AddEmbeddingCheck("voyage", fakeChecker{err: errors.New("timeout")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.Checks["embedding:modal"] != CheckOK {
		t.Errorf("healthy provider must report ok, got %s", report.Checks["embedding:modal"])
	}
	if report.Checks["embedding:voyage"] != CheckError {
		t.Errorf("broken provider must report error, got %s", report.Checks["embedding:voyage"])
	}
}

func TestCheck_NoEmbeddingChecks(t *testing.T) {
	report := New(fakePinger{}).Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if len(report.Checks) != 1 {
		t.Errorf("expected only the database check, got %v", report.Checks)
	}
}
