package config

import (
	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the config file whenever it changes and passes the freshly
// validated result to onChange. An update that fails validation is handed to
// onError and the previous configuration stays in effect. Watch reports false
// when no config file is in use.
func (c *Config) Watch(onChange func(*Config), onError func(error)) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(c.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(next)
	})
	c.v.WatchConfig()
	return true
}
