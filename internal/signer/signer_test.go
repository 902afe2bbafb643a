package signer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-governance/vigil/internal/model"
	"github.com/vigil-governance/vigil/internal/signer"
)

func sampleVerdict() model.Verdict {
	return model.Verdict{
		TraceID:  "trace-123",
		Decision: model.Allow,
		Reason:   model.ReasonAllValidatorsPassed,
	}
}

func TestSignVerify(t *testing.T) {
	s := signer.New("top-secret")
	v := sampleVerdict()

	sig, err := s.Sign(v)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	assert.True(t, s.Verify(v, sig))
}

func TestVerifyRejectsSingleBitMutation(t *testing.T) {
	s := signer.New("top-secret")
	v := sampleVerdict()

	sig, err := s.Sign(v)
	require.NoError(t, err)

	mutated := v
	mutated.Reason = model.ReasonAllValidatorsPassed + "x"
	assert.False(t, s.Verify(mutated, sig))
}

func TestVerifyRejectsEmptySignature(t *testing.T) {
	s := signer.New("top-secret")
	assert.False(t, s.Verify(sampleVerdict(), ""))
}

func TestSignWithoutSecretFails(t *testing.T) {
	s := signer.New("")
	_, err := s.Sign(sampleVerdict())
	assert.ErrorIs(t, err, signer.ErrNoSecret)
}

func TestDifferentSecretsProduceDifferentSignatures(t *testing.T) {
	v := sampleVerdict()
	sigA, err := signer.New("secret-a").Sign(v)
	require.NoError(t, err)
	sigB, err := signer.New("secret-b").Sign(v)
	require.NoError(t, err)
	assert.NotEqual(t, sigA, sigB)
}
