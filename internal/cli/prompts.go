package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/dyike/NexusGo/internal/models"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// PromptForTicker prompts the user to enter a stock ticker symbol
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, MSFT, 0700.HK):",
		Help:    "US symbols are plain tickers, Hong Kong symbols end in .HK",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if len(str) == 0 {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker symbol too long (max 10 characters)")
		}
		if !tickerPattern.MatchString(str) {
			return fmt.Errorf("invalid ticker format (use letters, numbers, dots, and hyphens only)")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// PromptForAnalysisDate prompts the user to enter an analysis date
func PromptForAnalysisDate() (string, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Enter the analysis date (YYYY-MM-DD) or press Enter for today:",
		Help:    "Format: YYYY-MM-DD (e.g., 2025-01-15). Leave empty for today's date.",
		Default: time.Now().Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil // empty means today
		}

		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}

		tomorrow := time.Now().AddDate(0, 0, 1)
		if parsed.After(tomorrow) {
			return fmt.Errorf("analysis date cannot be more than 1 day in the future")
		}

		fiveYearsAgo := time.Now().AddDate(-5, 0, 0)
		if parsed.Before(fiveYearsAgo) {
			return fmt.Errorf("analysis date cannot be more than 5 years in the past")
		}

		return nil
	}))
	if err != nil {
		return "", err
	}

	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	return dateStr, nil
}

// PromptForHorizon prompts the user to select the trading horizon
func PromptForHorizon(current string) (string, error) {
	options := []string{
		string(models.HorizonShort),
		string(models.HorizonMedium),
		string(models.HorizonLong),
	}

	defaultOption := current
	switch models.Horizon(current) {
	case models.HorizonShort, models.HorizonMedium, models.HorizonLong:
	default:
		defaultOption = string(models.HorizonMedium)
	}

	var horizon string
	prompt := &survey.Select{
		Message: "Select the trading horizon:",
		Options: options,
		Default: defaultOption,
		Help:    "short ≈ 2 weeks, medium ≈ 1 month, long ≈ 6 months",
	}

	if err := survey.AskOne(prompt, &horizon); err != nil {
		return "", err
	}
	return horizon, nil
}

// PromptForAnotherRun asks whether to analyze another symbol
func PromptForAnotherRun() (bool, error) {
	again := true
	prompt := &survey.Confirm{
		Message: "Analyze another symbol?",
		Default: true,
	}
	if err := survey.AskOne(prompt, &again); err != nil {
		return false, err
	}
	return again, nil
}
