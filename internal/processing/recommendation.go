package processing

import (
	"regexp"
	"strconv"
	"strings"
)

// Recommendation is the structured decision extracted from the model's
// free-form recommendation text.
type Recommendation struct {
	Action      string  `json:"action"`       // BUY, SELL, HOLD
	Confidence  float64 `json:"confidence"`   // 0.0 to 1.0
	Rationale   string  `json:"rationale"`    // Key sentences supporting the action
	TargetPrice float64 `json:"target_price"` // 0 when the model gave none
}

// Parser extracts structured recommendations from analysis text.
type Parser struct {
	buyPatterns  []*regexp.Regexp
	sellPatterns []*regexp.Regexp
	holdPatterns []*regexp.Regexp
}

// NewParser creates a parser with its keyword patterns compiled.
func NewParser() *Parser {
	return &Parser{
		buyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(buy|accumulate|long|bullish|upside|invest)\b`),
			regexp.MustCompile(`(?i)\b(strong buy|buy recommendation)\b`),
			regexp.MustCompile(`(?i)\b(undervalued|oversold|growth potential|opportunity)\b`),
		},
		sellPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sell|short|bearish|downside|reduce|exit)\b`),
			regexp.MustCompile(`(?i)\b(strong sell|sell recommendation|avoid)\b`),
			regexp.MustCompile(`(?i)\b(overvalued|overbought|deteriorating)\b`),
		},
		holdPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(hold|maintain|neutral|wait|sideways)\b`),
			regexp.MustCompile(`(?i)\b(no action|stay put|keep position)\b`),
		},
	}
}

// Parse extracts the action, a confidence score and the supporting
// sentences from recommendation text. An explicit "Recommendation: X" line
// wins over keyword scoring.
func (p *Parser) Parse(text string) Recommendation {
	action := explicitAction(text)
	if action == "" {
		action = p.scoreAction(text)
	}

	return Recommendation{
		Action:      action,
		Confidence:  p.confidence(text, action),
		Rationale:   p.rationale(text, action),
		TargetPrice: extractTargetPrice(text),
	}
}

var explicitActionRe = regexp.MustCompile(`(?im)^\s*(?:final\s+)?recommendation\s*[:\-]\s*\**\s*(buy|sell|hold)\b`)

// explicitAction honors a structured recommendation line when present.
func explicitAction(text string) string {
	m := explicitActionRe.FindStringSubmatch(text)
	if len(m) > 1 {
		return strings.ToUpper(m[1])
	}
	return ""
}

func (p *Parser) scoreAction(text string) string {
	text = strings.ToLower(text)

	buyScore := 0
	sellScore := 0
	holdScore := 0

	for _, pattern := range p.buyPatterns {
		buyScore += len(pattern.FindAllString(text, -1))
	}
	for _, pattern := range p.sellPatterns {
		sellScore += len(pattern.FindAllString(text, -1))
	}
	for _, pattern := range p.holdPatterns {
		holdScore += len(pattern.FindAllString(text, -1))
	}

	if buyScore > sellScore && buyScore > holdScore {
		return "BUY"
	} else if sellScore > buyScore && sellScore > holdScore {
		return "SELL"
	}
	return "HOLD"
}

// confidence scales with how densely the action's keywords occur.
func (p *Parser) confidence(text, action string) float64 {
	text = strings.ToLower(text)
	totalWords := len(strings.Fields(text))
	if totalWords == 0 {
		return 0.5
	}

	var relevantPatterns []*regexp.Regexp
	switch action {
	case "BUY":
		relevantPatterns = p.buyPatterns
	case "SELL":
		relevantPatterns = p.sellPatterns
	case "HOLD":
		relevantPatterns = p.holdPatterns
	}

	matchCount := 0
	for _, pattern := range relevantPatterns {
		matchCount += len(pattern.FindAllString(text, -1))
	}

	confidence := float64(matchCount) / float64(totalWords) * 10
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	return confidence
}

// rationale pulls up to three sentences that mention the action's keywords.
func (p *Parser) rationale(text, action string) string {
	sentences := strings.Split(text, ".")

	actionWords := map[string][]string{
		"BUY":  {"buy", "bullish", "growth", "opportunity", "undervalued", "upside"},
		"SELL": {"sell", "bearish", "risk", "decline", "overvalued", "downside"},
		"HOLD": {"hold", "neutral", "wait", "maintain", "uncertain"},
	}

	words := actionWords[action]
	var relevant []string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 10 {
			continue
		}
		for _, word := range words {
			if strings.Contains(strings.ToLower(sentence), word) {
				relevant = append(relevant, sentence)
				break
			}
		}
		if len(relevant) >= 3 {
			break
		}
	}

	if len(relevant) == 0 {
		return "Based on the combined technical and fundamental analysis."
	}
	return strings.Join(relevant, ". ")
}

var targetPriceRe = regexp.MustCompile(`(?i)(?:price\s+)?target[^$0-9]*\$?(\d+\.?\d*)`)

func extractTargetPrice(text string) float64 {
	m := targetPriceRe.FindStringSubmatch(text)
	if len(m) > 1 {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil {
			return price
		}
	}
	return 0
}
