package experiment

import (
	"os"

	"gopkg.in/yaml.v3"
)

// load experiment config from a file.
//
// args:
//   - filepath: filepath refers a config file.
//
// returns *ExperimentConfig, error:
//
//	When loading success, returns `(*ExperimentConfig, nil)`.
//	Otherwise, returns `(nil, error)`.
func LoadExperimentConfig(filepath string) (*ExperimentConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (out *ExperimentConfig, err error) {
	var _out *ExperimentConfigMarshall
	err = yaml.Unmarshal(conf, &_out)
	if err != nil {
		return nil, err
	}
	out = TrySeal(_out)
	return out, nil
}
