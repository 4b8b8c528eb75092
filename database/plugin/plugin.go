// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import "fmt"

// Plugin is a storage backend that is constructed from its registered
// options and then started
type Plugin interface {
	Start() error
	Stop() error
}

// ErrorPlugin carries a construction error until Start is called, so a bad
// option value surfaces where the backend is selected
type ErrorPlugin struct {
	Err error
}

func (e *ErrorPlugin) Start() error {
	return e.Err
}

func (e *ErrorPlugin) Stop() error {
	return nil
}

func NewErrorPlugin(err error) Plugin {
	return &ErrorPlugin{Err: err}
}

// StartPlugin instantiates the named plugin from the registry and starts it
func StartPlugin(pluginType PluginType, pluginName string) (Plugin, error) {
	typeName := PluginTypeName(pluginType)
	p := GetPlugin(pluginType, pluginName)
	if p == nil {
		return nil, fmt.Errorf("%s plugin '%s' not found", typeName, pluginName)
	}
	if err := p.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s plugin '%s': %w", typeName, pluginName, err)
	}
	return p, nil
}
