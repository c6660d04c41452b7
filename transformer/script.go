package transformer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/eddielth/sensor-gate/config"
	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/reading"
)

// ScriptManager holds the optional JavaScript preprocessors that normalize
// vendor-specific payload shapes before extraction. Scripts are keyed by
// software-version label; a reading matches the longest label that prefixes
// its software_version.
type ScriptManager struct {
	scripts map[string]*script
	mutex   sync.RWMutex
}

// script wraps a compiled goja runtime. Runtimes are not safe for concurrent
// use, so each call takes the script's own lock.
type script struct {
	vm         *goja.Runtime
	transform  goja.Callable
	scriptPath string
	mu         sync.Mutex
}

// NewScriptManager compiles a preprocessor for every configured firmware label
func NewScriptManager(configs map[string]config.ScriptConfig) (*ScriptManager, error) {
	manager := &ScriptManager{
		scripts: make(map[string]*script),
	}

	for label, cfg := range configs {
		code, err := loadScriptCode(cfg)
		if err != nil {
			return nil, fmt.Errorf("firmware %s: %v", label, err)
		}

		s, err := newScript(code, cfg.ScriptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to compile script for firmware %s: %v", label, err)
		}

		manager.scripts[label] = s
		logger.Info("loaded preprocessor script for firmware %s", label)
	}

	return manager, nil
}

// loadScriptCode resolves the script source, preferring inline code over a path
func loadScriptCode(cfg config.ScriptConfig) (string, error) {
	if cfg.ScriptCode != "" {
		return cfg.ScriptCode, nil
	}
	if cfg.ScriptPath != "" {
		scriptBytes, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return "", fmt.Errorf("failed to load script file %s: %v", cfg.ScriptPath, err)
		}
		return string(scriptBytes), nil
	}
	return "", fmt.Errorf("neither script_code nor script_path provided")
}

// newScript builds a goja runtime, injects the helper functions and resolves
// the transform entry point
func newScript(code, scriptPath string) (*script, error) {
	vm := goja.New()

	_ = vm.Set("log", func(msg string) {
		logger.Info("[JS] %s", msg)
	})

	_ = vm.Set("parseJSON", func(jsonStr string) interface{} {
		var data interface{}
		if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
			logger.Warn("failed to parse JSON in script: %v", err)
			return nil
		}
		return data
	})

	if _, err := vm.RunString(code); err != nil {
		return nil, fmt.Errorf("failed to run script: %v", err)
	}

	transformValue := vm.Get("transform")
	if transformValue == nil {
		return nil, fmt.Errorf("script does not define a 'transform' function")
	}

	transform, ok := goja.AssertFunction(transformValue)
	if !ok {
		return nil, fmt.Errorf("'transform' is not a function")
	}

	return &script{
		vm:         vm,
		transform:  transform,
		scriptPath: scriptPath,
	}, nil
}

// Preprocess runs the matching firmware script over the reading, returning
// the normalized reading and whether a script applied
func (m *ScriptManager) Preprocess(r reading.SensorReading) (reading.SensorReading, bool, error) {
	s := m.lookup(r.SoftwareVersion)
	if s == nil {
		return r, false, nil
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return r, true, fmt.Errorf("failed to serialize reading: %v", err)
	}

	s.mu.Lock()
	result, err := s.transform(goja.Undefined(), s.vm.ToValue(string(payload)))
	s.mu.Unlock()
	if err != nil {
		return r, true, fmt.Errorf("script execution failed: %v", err)
	}

	resultJSON, err := json.Marshal(result.Export())
	if err != nil {
		return r, true, fmt.Errorf("failed to serialize script result: %v", err)
	}

	var normalized reading.SensorReading
	if err := json.Unmarshal(resultJSON, &normalized); err != nil {
		return r, true, fmt.Errorf("script result is not a sensor reading: %v", err)
	}

	// Scripts may not rewrite identity fields
	normalized.DeviceID = r.DeviceID
	normalized.SoftwareVersion = r.SoftwareVersion

	return normalized, true, nil
}

// lookup finds the script whose label best matches the software version
func (m *ScriptManager) lookup(version string) *script {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if s, ok := m.scripts[version]; ok {
		return s
	}

	var best string
	var found *script
	for label, s := range m.scripts {
		if strings.HasPrefix(version, label) && len(label) > len(best) {
			best = label
			found = s
		}
	}
	return found
}

// Reload replaces the preprocessor for one firmware label
func (m *ScriptManager) Reload(label string, cfg config.ScriptConfig) error {
	code, err := loadScriptCode(cfg)
	if err != nil {
		return err
	}

	s, err := newScript(code, cfg.ScriptPath)
	if err != nil {
		return fmt.Errorf("failed to compile script: %v", err)
	}

	m.mutex.Lock()
	m.scripts[label] = s
	m.mutex.Unlock()

	logger.Info("reloaded preprocessor script for firmware %s", label)
	return nil
}
