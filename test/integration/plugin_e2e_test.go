//go:build (linux || darwin) && cgo

package integration

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/structgen/internal/harness"
)

// TestGenerateCompileLoadRoundTrip drives the whole pipeline with the real
// toolchain: generate from the address schema, compile in plugin mode, load
// the artifact and instantiate a generated type through its factory.
func TestGenerateCompileLoadRoundTrip(t *testing.T) {
	requireGoToolchain(t)

	cfg := testConfig(t)
	h := harness.New(cfg)

	ld, err := h.GenerateAndCompile(context.Background(), harness.Request{
		Schema:           addressSchema(t),
		TargetPackage:    "com.example",
		GenerateBuilders: true,
	})
	require.NoError(t, err)

	require.Contains(t, ld.Types(), "com.example.Address")
	require.Contains(t, ld.Types(), "com.example.Resident")

	instance, err := ld.New("com.example.Address")
	require.NoError(t, err)
	require.NotNil(t, instance)

	v := reflect.ValueOf(instance)

	setter := v.MethodByName("SetStreetAddress")
	require.True(t, setter.IsValid(), "generated type lacks SetStreetAddress")
	setter.Call([]reflect.Value{reflect.ValueOf("13 Rue Morgue")})

	getter := v.MethodByName("GetStreetAddress")
	require.True(t, getter.IsValid(), "generated type lacks GetStreetAddress")
	got := getter.Call(nil)
	require.Len(t, got, 1)
	require.Equal(t, "13 Rue Morgue", got[0].String())

	builder := v.MethodByName("WithCity")
	require.True(t, builder.IsValid(), "builders flag did not surface WithCity")
}

// TestLoadArtifactsFromSeparateRuns verifies that two pipeline runs in the
// same process each yield a working loader: the artifacts carry distinct
// pluginpaths, so the runtime accepts the second load.
func TestLoadArtifactsFromSeparateRuns(t *testing.T) {
	requireGoToolchain(t)

	cfg := testConfig(t)
	h := harness.New(cfg)

	first, err := h.GenerateAndCompile(context.Background(), harness.Request{
		Schema:        addressSchema(t),
		TargetPackage: "com.example",
	})
	require.NoError(t, err)

	second, err := h.GenerateAndCompile(context.Background(), harness.Request{
		Schema:        addressSchema(t),
		TargetPackage: "org.acme",
	})
	require.NoError(t, err)

	_, err = first.New("com.example.Address")
	require.NoError(t, err)
	_, err = second.New("org.acme.Address")
	require.NoError(t, err)
}

func TestLoadUnknownTypeFails(t *testing.T) {
	requireGoToolchain(t)

	cfg := testConfig(t)
	h := harness.New(cfg)

	ld, err := h.GenerateAndCompile(context.Background(), harness.Request{
		Schema:        addressSchema(t),
		TargetPackage: "com.example",
	})
	require.NoError(t, err)

	_, err = ld.New("com.example.Nope")
	require.Error(t, err)
}
