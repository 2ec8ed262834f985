package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/MAR2807/ai-chatbot-v3/core/logx"
	"github.com/MAR2807/ai-chatbot-v3/internal/bedrock"
	"github.com/MAR2807/ai-chatbot-v3/internal/config"
	"github.com/MAR2807/ai-chatbot-v3/internal/gateway"
	"github.com/MAR2807/ai-chatbot-v3/internal/relay"
	"github.com/MAR2807/ai-chatbot-v3/internal/server"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("invalid configuration")
	}
	logx.Configure(cfg.LogLevel, cfg.LogFormat)

	model, err := bedrock.NewClient(cfg.Credentials())
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("configure bedrock client")
	}
	router, err := server.New(cfg, server.Deps{
		Invoke: relay.New(model, relay.WithRedactedSecrets(cfg.AWS.SecretAccessKey, cfg.AWS.AccessKeyID)),
	})
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("build router")
	}
	logx.Log.Info().Str("region", model.Region()).Msg("lambda handler ready")
	lambda.Start(gateway.New(router).Handle)
}
