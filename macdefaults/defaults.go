package macdefaults

import (
	_ "embed"

	"github.com/anupcshan/netmac/membuf"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed defaults.yaml
	Defaults []byte
	Net      membuf.UpdateConfig
)

type defaults struct {
	Old string `yaml:"old"`
	New string `yaml:"new"`
}

func init() {
	var d defaults
	if err := yaml.Unmarshal(Defaults, &d); err != nil {
		panic(err)
	}

	Net = membuf.UpdateConfig{
		Old: membuf.MustParseMAC(d.Old),
		New: membuf.MustParseMAC(d.New),
	}
}
