package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// KVSuite runs the same contract tests against every KV adapter.
type KVSuite struct {
	suite.Suite
	ctx   context.Context
	newKV func(t *testing.T) KV
}

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestInMemoryKVSuite(t *testing.T) {
	suite.Run(t, &KVSuite{newKV: func(t *testing.T) KV {
		return NewInMemoryKV()
	}})
}

func TestFileKVSuite(t *testing.T) {
	suite.Run(t, &KVSuite{newKV: func(t *testing.T) KV {
		return NewFileKV(t.TempDir())
	}})
}

func (s *KVSuite) SetupSuite() {
	s.ctx = context.Background()
}

func (s *KVSuite) TestPutGetRoundTrip() {
	kv := s.newKV(s.T())

	in := record{Name: "alpha", Count: 3}
	s.Require().NoError(kv.Put(s.ctx, "state", "P00231", in))

	var out record
	s.Require().NoError(kv.Get(s.ctx, "state", "P00231", &out))
	s.Equal(in, out)
}

func (s *KVSuite) TestPutOverwrites() {
	kv := s.newKV(s.T())

	s.Require().NoError(kv.Put(s.ctx, "state", "P00231", record{Name: "first"}))
	s.Require().NoError(kv.Put(s.ctx, "state", "P00231", record{Name: "second"}))

	var out record
	s.Require().NoError(kv.Get(s.ctx, "state", "P00231", &out))
	s.Equal("second", out.Name)
}

func (s *KVSuite) TestGetMissingKey() {
	kv := s.newKV(s.T())

	var out record
	s.ErrorIs(kv.Get(s.ctx, "state", "absent", &out), ErrNotFound)
}

func (s *KVSuite) TestAppendGrowsLog() {
	kv := s.newKV(s.T())

	for i := 1; i <= 3; i++ {
		s.Require().NoError(kv.Append(s.ctx, "audit", "P00231", record{Name: "entry", Count: i}))
	}

	var out []record
	s.Require().NoError(kv.GetLog(s.ctx, "audit", "P00231", &out))
	s.Require().Len(out, 3)
	s.Equal(1, out[0].Count)
	s.Equal(3, out[2].Count)
}

func (s *KVSuite) TestNamespacesAreIsolated() {
	kv := s.newKV(s.T())

	s.Require().NoError(kv.Put(s.ctx, "state", "P00231", record{Name: "state"}))
	s.Require().NoError(kv.Put(s.ctx, "escalations/patient_P00231", "P00231", record{Name: "escalation"}))

	var out record
	s.Require().NoError(kv.Get(s.ctx, "state", "P00231", &out))
	s.Equal("state", out.Name)
	s.Require().NoError(kv.Get(s.ctx, "escalations/patient_P00231", "P00231", &out))
	s.Equal("escalation", out.Name)
}

func TestFileKVLayout(t *testing.T) {
	base := t.TempDir()
	kv := NewFileKV(base)
	ctx := context.Background()

	if err := kv.Put(ctx, "escalations/patient_P00231", "lab_portal", record{Name: "batch"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(base, "escalations", "patient_P00231", "lab_portal.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected record at %s: %v", path, err)
	}
}
