// Package plugin hosts WebAssembly sample transforms. A plugin module exports
// transform(f64) f64, which is applied to every numeric sample of a session.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// TransformExport is the function a plugin must export.
const TransformExport = "transform"

// ErrMissingTransform is returned when the module does not export transform.
var ErrMissingTransform = errors.New("plugin does not export " + TransformExport + "(f64) f64")

// Plugin is an instantiated WASM transform
type Plugin struct {
	runtime   wazero.Runtime
	module    api.Module
	transform api.Function
	mu        sync.Mutex
}

// Load reads and instantiates a plugin from a .wasm file
func Load(ctx context.Context, wasmPath string) (*Plugin, error) {
	wasmBytes, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm file: %w", err)
	}
	return New(ctx, wasmBytes)
}

// New instantiates a plugin from module bytes. WASI is available to the
// module so toolchains that target it work unchanged.
func New(ctx context.Context, wasmBytes []byte) (*Plugin, error) {
	r := wazero.NewRuntime(ctx)

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("failed to compile wasm module: %w", err)
	}

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithStderr(os.Stderr))
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate wasm module: %w", err)
	}

	fn := mod.ExportedFunction(TransformExport)
	if fn == nil || !isF64ToF64(fn.Definition()) {
		r.Close(ctx)
		return nil, ErrMissingTransform
	}

	return &Plugin{
		runtime:   r,
		module:    mod,
		transform: fn,
	}, nil
}

func isF64ToF64(def api.FunctionDefinition) bool {
	params, results := def.ParamTypes(), def.ResultTypes()
	return len(params) == 1 && params[0] == api.ValueTypeF64 &&
		len(results) == 1 && results[0] == api.ValueTypeF64
}

// Transform calls the plugin's transform on one value. Calls are serialized;
// a module instance is not safe for concurrent use.
func (p *Plugin) Transform(ctx context.Context, v float64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	results, err := p.transform.Call(ctx, api.EncodeF64(v))
	if err != nil {
		return v, fmt.Errorf("failed to call %s: %w", TransformExport, err)
	}
	return api.DecodeF64(results[0]), nil
}

// Close releases the runtime
func (p *Plugin) Close(ctx context.Context) error {
	return p.runtime.Close(ctx)
}
