package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestDuplicateFactor(t *testing.T) {
	err := DuplicateFactor("genetic_momentum_10_abc123")
	if err.Code != ErrCodeDuplicateFactor {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDuplicateFactor)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, http.StatusConflict)
	}
	if err.Details["factor_id"] != "genetic_momentum_10_abc123" {
		t.Errorf("Details[factor_id] = %v", err.Details["factor_id"])
	}
}

func TestDuplicateMiner(t *testing.T) {
	err := DuplicateMiner("genetic")
	if err.Code != ErrCodeDuplicateMiner {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDuplicateMiner)
	}
}

func TestSystemOverloaded(t *testing.T) {
	err := SystemOverloaded(0.95, 0.88, 0.8)
	if err.Code != ErrCodeSystemOverloaded {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSystemOverloaded)
	}
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, http.StatusServiceUnavailable)
	}
}

func TestMinerFailure(t *testing.T) {
	underlying := errors.New("panic recovered")
	err := MinerFailure("network", underlying)
	if err.Code != ErrCodeMinerFailure {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMinerFailure)
	}
	if err.Err != underlying {
		t.Errorf("Err = %v, want %v", err.Err, underlying)
	}
}

func TestOperatorFailure(t *testing.T) {
	underlying := errors.New("budget exceeded")
	err := OperatorFailure("genetic", "momentum_10", underlying)
	if err.Code != ErrCodeOperatorFailure {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeOperatorFailure)
	}
	if err.Details["operator"] != "momentum_10" {
		t.Errorf("Details[operator] = %v", err.Details["operator"])
	}
}

func TestDataQualityBelowThreshold(t *testing.T) {
	err := DataQualityBelowThreshold("satellite")
	if err.Code != ErrCodeDataQualityBelowThreshold {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDataQualityBelowThreshold)
	}
}

func TestOrchestratorShutdown(t *testing.T) {
	err := OrchestratorShutdown()
	if err.Code != ErrCodeOrchestratorShutdown {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeOrchestratorShutdown)
	}
	if err.HTTPStatus != http.StatusGone {
		t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, http.StatusGone)
	}
}

func TestArenaTimeout(t *testing.T) {
	err := ArenaTimeout("layer3")
	if err.Code != ErrCodeArenaTimeout {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeArenaTimeout)
	}
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, http.StatusGatewayTimeout)
	}
}

func TestArenaCancelled(t *testing.T) {
	err := ArenaCancelled("layer1")
	if err.Code != ErrCodeArenaCancelled {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeArenaCancelled)
	}
}
