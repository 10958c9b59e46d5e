package game

import "errors"

const (
	// Instrument price bounds. Prices are always rounded to 2 decimals
	// and clamped into this band.
	BasePrice = 100.0
	MinPrice  = 0.01
	MaxPrice  = 999999.99

	MaxHardness = 100

	// Registration draws an initial length uniformly from this range.
	RegisterLengthMin = 3
	RegisterLengthMax = 10

	TrainCooldownSecs  = 600
	TrainLateWindow    = 1800
	DuelCooldownSecs   = 600
	DuelWindowSecs     = 600
	DuelWindowMax      = 3
	BrawlCooldownSecs  = 3600
	BrawlMinPlayers    = 3
	BrawlBattles       = 8
	RobCooldownSecs    = 900
	FlyCooldownSecs    = 7200
	RushCooldownSecs   = 1800
	RushMinSecs        = 600
	RushMaxSecs        = 43200
	RushDailyLimit     = 3
	RushCoinsPerMinute = 1
	RushMaxBaseCoins   = 600

	DuelBetMin        = 10
	DuelBetMax        = 10000
	DuelBetWinFactor  = 1.8
	AdminGrantMaxEach = 10000

	// Staged affliction: per-step deduction, as a fraction of the
	// snapshot taken at application time.
	AfflictionSteps   = 5
	AfflictionStepPct = 0.196

	StockFeeRate     = 0.03
	StockEventsMax   = 50
	InsurancePayout  = 200
	InsuranceCharges = 10
	ShieldCharges    = 3
	RedirectCharges  = 2
)

var (
	ErrNotRegistered     = errors.New("player not registered")
	ErrAlreadyRegistered = errors.New("player already registered")
	ErrGroupDisabled     = errors.New("group is disabled")
	ErrTargetNotFound    = errors.New("target player not found")
	ErrSelfTarget        = errors.New("cannot target yourself")
	ErrOnCooldown        = errors.New("action on cooldown")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrInsufficientShare = errors.New("insufficient holdings")
	ErrInvalidBet        = errors.New("bet out of range")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrUnknownAction     = errors.New("unknown action kind")
	ErrUnknownItem       = errors.New("unknown shop item")
	ErrUnknownPlan       = errors.New("unknown subscription plan")
	ErrMaxHeld           = errors.New("item at maximum held count")
	ErrAlreadyRushing    = errors.New("rush already running")
	ErrNotRushing        = errors.New("no rush running")
	ErrDailyLimit        = errors.New("daily limit reached")
	ErrNotEnoughPlayers  = errors.New("not enough registered players")
)

// ParasiteLink is a player's single outgoing drain link: positive length
// gains above a threshold leak to the beneficiary.
type ParasiteLink struct {
	BeneficiaryID   string `yaml:"beneficiary_id"`
	BeneficiaryName string `yaml:"beneficiary_name"`
}

// AfflictionRecord tracks the staged debuff. Damage per step is anchored
// to the snapshot, never to current values.
type AfflictionRecord struct {
	Active         bool    `yaml:"active"`
	RemainingSteps int     `yaml:"remaining_steps"`
	SnapLength     int     `yaml:"snap_length"`
	SnapHardness   int     `yaml:"snap_hardness"`
	SnapAsset      float64 `yaml:"snap_asset"`
	AppliedBy      string  `yaml:"applied_by,omitempty"`
}

type PlayerRecord struct {
	Nickname string         `yaml:"nickname"`
	Length   int            `yaml:"length"`
	Hardness int            `yaml:"hardness"`
	Coins    int64          `yaml:"coins"`
	Items    map[string]int `yaml:"items,omitempty"`

	LastTrain       int64  `yaml:"last_train,omitempty"`
	TrainDate       string `yaml:"train_date,omitempty"`
	TrainCountToday int    `yaml:"train_count_today,omitempty"`
	TrainCombo      int    `yaml:"train_combo,omitempty"`
	NextTrainSure   bool   `yaml:"next_train_sure,omitempty"`

	DuelTimes  map[string]int64 `yaml:"duel_times,omitempty"`
	DuelWindow []int64          `yaml:"duel_window,omitempty"`
	WinStreak  int              `yaml:"win_streak,omitempty"`
	LossStreak int              `yaml:"loss_streak,omitempty"`

	GreetDate string `yaml:"greet_date,omitempty"`

	Parasite   *ParasiteLink     `yaml:"parasite,omitempty"`
	Affliction *AfflictionRecord `yaml:"affliction,omitempty"`

	InsuranceLeft int `yaml:"insurance_left,omitempty"`
	ShieldLeft    int `yaml:"shield_left,omitempty"`
	RedirectLeft  int `yaml:"redirect_left,omitempty"`

	Rushing        bool   `yaml:"rushing,omitempty"`
	RushStart      int64  `yaml:"rush_start,omitempty"`
	RushLastEnd    int64  `yaml:"rush_last_end,omitempty"`
	RushDate       string `yaml:"rush_date,omitempty"`
	RushCountToday int    `yaml:"rush_count_today,omitempty"`

	LastFly   int64 `yaml:"last_fly,omitempty"`
	LastRob   int64 `yaml:"last_rob,omitempty"`
	LastBrawl int64 `yaml:"last_brawl,omitempty"`
}

type GroupRecord struct {
	Enabled bool                     `yaml:"enabled"`
	Players map[string]*PlayerRecord `yaml:"players"`
}

// RecordsDoc is the full persisted player/group document.
type RecordsDoc struct {
	Groups map[string]*GroupRecord `yaml:"groups"`
}

type DayCounter struct {
	Date  string `yaml:"date"`
	Count int    `yaml:"count"`
}

type SubscriptionRecord struct {
	ExpireAt    int64                  `yaml:"expire_at"`
	DayCounters map[string]*DayCounter `yaml:"day_counters,omitempty"`
}

// SubsDoc is the full persisted subscription ledger, keyed
// "group|user|plan".
type SubsDoc struct {
	Entries map[string]*SubscriptionRecord `yaml:"entries"`
}

type StockEvent struct {
	Time        int64   `yaml:"time"`
	Category    string  `yaml:"category"`
	Direction   int     `yaml:"direction"`
	ChangePct   float64 `yaml:"change_pct"`
	Description string  `yaml:"description"`
}

type TraderStats struct {
	Spent    float64 `yaml:"spent"`
	Proceeds float64 `yaml:"proceeds"`
	Fees     float64 `yaml:"fees"`
	Taxes    float64 `yaml:"taxes"`
}

// StockRecord is the single tradable instrument of one group.
type StockRecord struct {
	Price    float64                 `yaml:"price"`
	Holdings map[string]float64      `yaml:"holdings,omitempty"`
	Stats    map[string]*TraderStats `yaml:"stats,omitempty"`
	Events   []StockEvent            `yaml:"events,omitempty"`
}

// MarketDoc is the full persisted instrument document.
type MarketDoc struct {
	Groups map[string]*StockRecord `yaml:"groups"`
}

func clampHardness(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxHardness {
		return MaxHardness
	}
	return v
}

// items returns a non-nil inventory map for pipeline gating.
func (p *PlayerRecord) items() map[string]int {
	if p == nil || p.Items == nil {
		return map[string]int{}
	}
	return p.Items
}

func (p *PlayerRecord) addItem(name string, n int) {
	if p.Items == nil {
		p.Items = map[string]int{}
	}
	p.Items[name] += n
	if p.Items[name] <= 0 {
		delete(p.Items, name)
	}
}

func (p *PlayerRecord) consumeItem(name string) bool {
	if p.Items == nil || p.Items[name] <= 0 {
		return false
	}
	p.Items[name]--
	if p.Items[name] == 0 {
		delete(p.Items, name)
	}
	return true
}
