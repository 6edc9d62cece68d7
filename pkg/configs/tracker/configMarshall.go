package tracker

import (
	"fmt"
	"time"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/tracker.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type TrackerConfigMarshall struct {
	Port     int32                `yaml:"port"`
	Database string               `yaml:"database"`
	Store    string               `yaml:"store"`
	Token    *TokenConfigMarshall `yaml:"token,omitempty"`
}

var _ Marshalled[*TrackerConfig] = &TrackerConfigMarshall{}

func (t *TrackerConfigMarshall) trySeal(path string) *TrackerConfig {
	var token *TokenConfig
	if t.Token != nil {
		token = t.Token.trySeal(path + ".token")
	}
	return &TrackerConfig{
		port:     required(t.Port, path+".port"),
		database: required(t.Database, path+".database"),
		store:    required(t.Store, path+".store"),
		token:    token,
	}
}

type TokenConfigMarshall struct {
	Secret string `yaml:"secret"`
	TTL    string `yaml:"ttl,omitempty"`
}

func (t *TokenConfigMarshall) trySeal(path string) *TokenConfig {
	ttl := time.Duration(0)
	if t.TTL != "" {
		d, err := time.ParseDuration(t.TTL)
		if err != nil {
			panic(fmt.Errorf("%s.ttl can not be parsed: %w", path, err))
		}
		ttl = d
	}
	return &TokenConfig{
		secret: []byte(required(t.Secret, path+".secret")),
		ttl:    ttl,
	}
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
