package registry

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"PIX-Group-Bot/internal/db"
)

// ErrUnknownBot means no active bot matches the presented token or id. The
// webhook boundary still answers 200 so Telegram does not retry.
var ErrUnknownBot = errors.New("unknown bot")

const apiCallTimeout = 10 * time.Second

type cacheEntry struct {
	token string
	api   *tgbotapi.BotAPI
}

var (
	mu    sync.RWMutex
	cache = make(map[uint]*cacheEntry)
)

// ResolveByToken finds the active bot owning the inbound webhook token. This
// is the canonical routing shape.
func ResolveByToken(token string) (db.Bot, error) {
	if token == "" {
		return db.Bot{}, ErrUnknownBot
	}
	bot, err := db.FindActiveBotByToken(token)
	if err != nil {
		return db.Bot{}, ErrUnknownBot
	}
	if !tokenEqual(bot.Token, token) {
		return db.Bot{}, ErrUnknownBot
	}
	return bot, nil
}

// ResolveByID finds the active bot by its numeric id. Deprecated alias for
// deployments still using the /webhook/<botID> path shape; consulted only when
// no token parameter is present.
func ResolveByID(id uint) (db.Bot, error) {
	bot, err := db.FindActiveBotByID(id)
	if err != nil {
		return db.Bot{}, ErrUnknownBot
	}
	return bot, nil
}

// API returns a cached Telegram client for the bot. Entries are rebuilt when
// the stored token changes. The underlying HTTP client carries a fixed
// timeout so one slow Telegram call cannot stall a sweep.
func API(bot db.Bot) (*tgbotapi.BotAPI, error) {
	mu.RLock()
	entry, ok := cache[bot.ID]
	mu.RUnlock()
	if ok && tokenEqual(entry.token, bot.Token) {
		return entry.api, nil
	}

	api, err := newAPI(bot.Token)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	cache[bot.ID] = &cacheEntry{token: bot.Token, api: api}
	mu.Unlock()
	return api, nil
}

// ValidateBotToken checks a token against the Telegram API before it is
// persisted. Returns the bot's username on success.
func ValidateBotToken(token string) (string, error) {
	api, err := newAPI(token)
	if err != nil {
		return "", err
	}
	return api.Self.UserName, nil
}

func newAPI(token string) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: apiCallTimeout}
	// NewBotAPIWithClient performs getMe, so an invalid token fails here.
	return tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
}

// tokenEqual compares tokens in constant time over fixed-length digests.
func tokenEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
