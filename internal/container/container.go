package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/travel-diaries/config"
	"github.com/oksasatya/travel-diaries/pkg/helpers"
	"github.com/oksasatya/travel-diaries/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	tokenManager *helpers.TokenManager

	mailgunClient *mailer.Mailgun
	rabbitPub     *helpers.RabbitPublisher
	esClient      *elasticsearch.Client
)

func SetConfig(c *config.Config)       { cfg = c }
func GetConfig() *config.Config        { return cfg }
func SetLogger(l *logrus.Logger)       { logger = l }
func GetLogger() *logrus.Logger        { return logger }
func SetPGPool(p *pgxpool.Pool)        { pgPool = p }
func GetPGPool() *pgxpool.Pool         { return pgPool }
func SetRedis(r *redis.Client)         { redisClient = r }
func GetRedis() *redis.Client          { return redisClient }
func SetTokens(m *helpers.TokenManager) { tokenManager = m }
func GetTokens() *helpers.TokenManager  { return tokenManager }

func SetMailgun(m *mailer.Mailgun)            { mailgunClient = m }
func GetMailgun() *mailer.Mailgun             { return mailgunClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
