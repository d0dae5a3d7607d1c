package config

type RpcParam struct {
	Enabled  bool   `yaml:"enabled"`
	Url      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func (c RpcParam) GetUrl() string {
	return c.Url
}

func (c RpcParam) GetUsername() string {
	return c.Username
}

func (c RpcParam) GetPassword() string {
	return c.Password
}
