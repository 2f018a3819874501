package robot

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/kellegous/poop"
	"gopkg.in/yaml.v3"

	"github.com/tamandutech/robotble"
)

const statusOK = "OK"

// Parameter is a value of the robot's parameter table, addressed by class and
// name.
type Parameter struct {
	Class string `yaml:"class" json:"class"`
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// FormatValue renders a parameter value for param_set. The firmware expects
// negative numbers to be prefixed with "!".
func FormatValue(value string) string {
	if v, err := strconv.ParseFloat(value, 64); err == nil && v < 0 {
		return "!" + value
	}
	return value
}

// Parameter reads the value of class.name.
func (r *Robot) Parameter(ctx context.Context, class, name string) (string, error) {
	msg, err := r.Request(ctx, paramGetCommand(class, name))
	if err != nil {
		return "", err
	}
	return msg.Data, nil
}

// SetParameter sets class.name to value and returns the value read back from
// the robot.
func (r *Robot) SetParameter(ctx context.Context, class, name, value string) (string, error) {
	msg, err := r.Request(ctx, paramSetCommand(class, name, FormatValue(value)))
	if err != nil {
		return "", err
	}

	if msg.Data != statusOK {
		key := paramKey(class, name)
		return "", robotble.RuntimeError(
			poop.Newf("param_set %s answered %q", key, msg.Data),
			robotble.WithMessage("An error occurred while updating "+key),
			robotble.WithAction("Reload the parameters in the dashboard to check the current value of the parameter"))
	}

	return r.Parameter(ctx, class, name)
}

// InstallParameters sets every parameter in order, giving the robot time to
// process each command before the next one. Values are sent as given.
func (r *Robot) InstallParameters(ctx context.Context, params []Parameter) error {
	for _, p := range params {
		if err := r.install.Wait(ctx); err != nil {
			return poop.Chain(err)
		}

		msg, err := r.Request(ctx, paramSetCommand(p.Class, p.Name, p.Value))
		if err != nil {
			return err
		}

		if msg.Data != statusOK {
			return robotble.RuntimeError(
				poop.Newf("param_set %s answered %q", paramKey(p.Class, p.Name), msg.Data),
				robotble.WithMessage("An error occurred while installing the parameters"),
				robotble.WithAction("The parameters were not all installed. Reload the parameters in the dashboard to check the current values"))
		}
	}
	return nil
}

// ListParameters returns the raw parameter table of the robot.
func (r *Robot) ListParameters(ctx context.Context) (string, error) {
	msg, err := r.Request(ctx, CommandParamList)
	if err != nil {
		return "", err
	}
	return msg.Data, nil
}

// ReadParameters decodes a YAML list of parameters, as accepted by
// InstallParameters.
func ReadParameters(r io.Reader) ([]Parameter, error) {
	var params []Parameter
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil && err != io.EOF {
		return nil, poop.Chain(err)
	}

	for i, p := range params {
		if p.Class == "" || p.Name == "" {
			return nil, poop.Newf("parameter %d has no class or name", i)
		}
	}
	return params, nil
}

func LoadParameters(path string) ([]Parameter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, poop.Chain(err)
	}
	defer f.Close()

	return ReadParameters(f)
}
