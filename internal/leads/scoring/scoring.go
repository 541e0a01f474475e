// Package scoring computes the intent score a lead receives at creation.
// The function is pure: same attributes, same score.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// baseScore is where every lead starts before factors apply.
	baseScore = 40.0

	maxScore = 100
	minScore = 0
)

// Input carries the lead attributes that influence the score.
type Input struct {
	Source          string
	IntentLevel     string
	EstimatedAmount *float64
	HasWechat       bool
	HasAddress      bool
	HasChannel      bool
	Notes           string
}

// Result is the score plus the contribution of each factor.
type Result struct {
	Score   int
	Factors map[string]float64
}

// sourceScoreTable maps source keywords to their quality scores.
// The first matching row wins.
var sourceScoreTable = []struct {
	keywords []string
	score    float64
}{
	{[]string{"referral", "转介绍", "老客户"}, 20},
	{[]string{"walk-in", "walkin", "到店", "展厅"}, 18},
	{[]string{"phone", "call", "400", "来电"}, 14},
	{[]string{"website", "官网", "mini-program", "小程序"}, 10},
	{[]string{"wechat", "微信", "douyin", "抖音", "xiaohongshu", "小红书"}, 8},
	{[]string{"event", "exhibition", "展会", "活动"}, 6},
	{[]string{"ads", "advert", "广告", "baidu", "百度"}, 4},
	{[]string{"cold", "purchased", "外呼"}, -5},
}

var intentScores = map[string]float64{
	"HIGH":   20,
	"高":      20,
	"MEDIUM": 10,
	"中":      10,
	"LOW":    -5,
	"低":      -5,
}

// Score computes the intent score for in.
func Score(in Input) Result {
	factors := map[string]float64{}
	score := baseScore

	score += addFactor(factors, "source", scoreSource(in.Source))
	score += addFactor(factors, "intent", intentScores[strings.ToUpper(strings.TrimSpace(in.IntentLevel))])
	score += addFactor(factors, "amount", scoreAmount(in.EstimatedAmount))
	score += addFactor(factors, "contactability", scoreContactability(in))
	score += addFactor(factors, "notes", scoreNotes(in.Notes))

	return Result{Score: clampScore(score), Factors: factors}
}

func addFactor(factors map[string]float64, key string, value float64) float64 {
	if value != 0 {
		factors[key] = value
	}
	return value
}

func scoreSource(source string) float64 {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return 0
	}
	for _, entry := range sourceScoreTable {
		if containsAny(source, entry.keywords) {
			return entry.score
		}
	}
	return 0
}

// scoreAmount rewards larger deals on a log scale, capped at +15.
func scoreAmount(amount *float64) float64 {
	if amount == nil || *amount <= 0 {
		return 0
	}
	return math.Min(15, math.Round(math.Log10(*amount)*3))
}

func scoreContactability(in Input) float64 {
	score := 0.0
	if in.HasWechat {
		score += 5
	}
	if in.HasAddress {
		score += 3
	}
	if in.HasChannel {
		score += 2
	}
	return score
}

func scoreNotes(notes string) float64 {
	n := utf8.RuneCountInString(strings.TrimSpace(notes))
	switch {
	case n == 0:
		return 0
	case n >= 100:
		return 5
	case n >= 20:
		return 3
	default:
		return 1
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < minScore {
		return minScore
	}
	if rounded > maxScore {
		return maxScore
	}
	return rounded
}
