package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"loan-dashboard/domain"
)

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

var recommendationIcons = []string{"TrendingDown", "Calendar", "DollarSign", "Calculator", "PieChart"}

// FallbackRecommendations are served whenever the assistant cannot produce
// usable advice.
func FallbackRecommendations() []domain.Recommendation {
	return []domain.Recommendation{
		{
			ID:          1,
			Title:       "Refinance High-Interest Loans",
			Description: "Look into refinancing options for loans with interest rates above 5%. This could lower your monthly payments and save on interest.",
			Action:      "Explore Refinancing Options",
			Icon:        "TrendingDown",
			Savings:     "$20,000+",
			Link:        "#",
		},
		{
			ID:          2,
			Title:       "Implement Bi-weekly Payments",
			Description: "Make payments every two weeks instead of monthly to reduce your loan term and save on interest payments.",
			Action:      "Set Up Bi-weekly Payments",
			Icon:        "Calendar",
			Savings:     "$8,500",
			Link:        "#",
		},
		{
			ID:          3,
			Title:       "Make Extra Principal Payments",
			Description: "Adding even a small extra amount to your monthly payment can significantly reduce your loan term and interest costs.",
			Action:      "Adjust Payment Amount",
			Icon:        "DollarSign",
			Savings:     "$15,000+",
			Link:        "#",
		},
	}
}

type RecommendationService struct {
	completer Completer
	logger    *zap.Logger
}

func NewRecommendationService(completer Completer, logger *zap.Logger) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{completer: completer, logger: logger}
}

// Recommend asks the assistant for three savings ideas based on loans. It
// never fails: any problem yields the fallback set.
func (s *RecommendationService) Recommend(ctx context.Context, loans []domain.Loan) []domain.Recommendation {
	ctx, span := tracer.Start(ctx, "recommendations.generate")
	defer span.End()

	prompt := recommendationPrompt(loans)
	reply, err := s.completer.Complete(
		withAIOperation(ctx, "recommendations"),
		"",
		[]domain.Message{{Role: domain.RoleUser, Content: prompt}},
	)
	if err != nil {
		s.logger.Warn("recommendations unavailable, using fallback", zap.Error(err))
		return FallbackRecommendations()
	}

	recs, err := parseRecommendations(reply)
	if err != nil {
		s.logger.Warn("could not parse recommendations, using fallback", zap.Error(err))
		return FallbackRecommendations()
	}
	return recs
}

func recommendationPrompt(loans []domain.Loan) string {
	var details strings.Builder
	for _, l := range loans {
		fmt.Fprintf(&details,
			"Loan: %s\nAmount: $%.2f\nRemaining: $%.2f\nInterest Rate: %s\nMonthly Payment: $%.2f\nPayments Remaining: %d\n\n",
			l.Name, l.Amount, l.Remaining, l.InterestRate, l.NextAmount, l.PaymentsRemaining)
	}

	return fmt.Sprintf(`You are an AI loan advisor. Based on the following loan information, provide 3 personalized recommendations to help save money and pay off loans faster.

%s
For each recommendation, provide:
1. A title (short and specific)
2. A description (explain the strategy and its benefits)
3. An action label (what the user should do next)
4. An icon name (choose one: %s)
5. Estimated savings amount in $

Format your response as a JSON array with the following structure:
[
  {
    "title": "...",
    "description": "...",
    "action": "...",
    "icon": "...",
    "savings": "$..."
  }
]

Only provide specific, actionable recommendations based on the actual loan data provided.`,
		details.String(), strings.Join(recommendationIcons, ", "))
}

// parseRecommendations decodes the JSON array embedded in reply, which may be
// wrapped in prose or a code fence.
func parseRecommendations(reply string) ([]domain.Recommendation, error) {
	raw := jsonArrayRe.FindString(reply)
	if raw == "" {
		return nil, errors.New("no JSON array in reply")
	}

	var items []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Action      string `json:"action"`
		Icon        string `json:"icon"`
		Savings     string `json:"savings"`
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("empty recommendation list")
	}

	recs := make([]domain.Recommendation, 0, len(items))
	for i, it := range items {
		recs = append(recs, domain.Recommendation{
			ID:          i + 1,
			Title:       it.Title,
			Description: it.Description,
			Action:      it.Action,
			Icon:        it.Icon,
			Savings:     it.Savings,
			Link:        "#",
		})
	}
	return recs, nil
}
