package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Quiz   QuizConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// QuizConfig 測驗房間的預設設定
type QuizConfig struct {
	QuestionTime int // 每題作答秒數（主持人未指定時的預設值）
	IdleTimeout  int // 房間無任何連線多少分鐘後回收
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	viper.SetDefault("quiz.questiontime", 20)
	viper.SetDefault("quiz.idletimeout", 10)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
