package base

import (
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
)

func TestDialTimeout(t *testing.T) {
	if d := DialTimeout(common.ClientConfig{}); d != DefaultDialTimeout {
		t.Errorf("Expected the default dial timeout, got %v", d)
	}
	if d := DialTimeout(common.ClientConfig{TimeoutSecond: 3}); d != 3*time.Second {
		t.Errorf("Expected 3s, got %v", d)
	}
}
