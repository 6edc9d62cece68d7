package tracker

import (
	"os"

	"gopkg.in/yaml.v3"
)

// load tracker server config from a file.
//
// args:
//   - filepath: filepath refers a config file.
//
// returns *TrackerConfig, error:
//
//	When loading success, returns `(*TrackerConfig, nil)`.
//	Otherwise, returns `(nil, error)`.
func LoadTrackerConfig(filepath string) (*TrackerConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (out *TrackerConfig, err error) {
	var _out *TrackerConfigMarshall
	err = yaml.Unmarshal(conf, &_out)
	if err != nil {
		return nil, err
	}
	out = TrySeal(_out)
	return out, nil
}
