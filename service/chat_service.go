package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/metrics"
)

var (
	ErrNoUserMessage        = errors.New("no user message found")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

const chatSystemPrompt = `You are LoanAI Assistant, a helpful AI loan assistant for a loan repayment website.

IMPORTANT INSTRUCTIONS:
1. ONLY answer questions related to loans, loan repayments, and financial advice related to loans.
2. If a user asks a question NOT related to loans or finances, politely respond with: "Please ask a question related to loans and repayment. I'm here to help with your loan questions."
3. Keep responses VERY BRIEF - maximum 5-7 short bullet points total.
4. For bullet points, use a dash (-) instead of asterisks (*).
5. DO NOT use any markdown formatting or symbols like **, *, or #.
6. Use simple, direct language.
7. Separate sections with a blank line if needed.
8. Keep the entire response under 150 words.

CALCULATION INSTRUCTIONS:
1. When asked to calculate loan payments, interest, or other financial figures, ALWAYS perform the actual calculation.
2. For EMI (Equated Monthly Installment) calculations, use this formula: EMI = P × r × (1 + r)^n / ((1 + r)^n - 1)
   Where: P = Principal loan amount, r = Monthly interest rate (annual rate ÷ 12 ÷ 100), n = Loan term in months
3. Show the result of calculations with exact numbers.
4. For a $200,000 loan at 10% interest for 5 years (60 months), the EMI would be $4,249.41 per month.

For specific loan details, reference:
- Home Loan: $250,000 total, $175,000 remaining, 3.5% interest rate, $1,250 monthly payment, due May 15, 2025
- Auto Loan: $35,000 total, $12,000 remaining, 4.2% interest rate, $450 monthly payment, due May 10, 2025
- Student Loan: $50,000 total, $20,000 remaining, 5.0% interest rate, $500 monthly payment, due May 20, 2025

Recommend strategies like Debt Avalanche (highest interest first), Debt Snowball (smallest balances first),
Refinancing, Bi-weekly payments, and Extra principal payments.

Be helpful, concise, and friendly.`

const calculationHeader = "\n\nHere is the calculation result you should use in your response:\n"

var calculationKeywords = []string{
	"calculate",
	"computation",
	"emi",
	"monthly payment",
	"interest",
	"loan amount",
	"principal",
	"term",
	"years",
	"months",
	"rate",
}

// amount is a plain or comma grouped number, e.g. 200000, 200,000.50 or 4.5
const amountPattern = `\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`

var (
	digitRe  = regexp.MustCompile(`\d`)
	dollarRe = regexp.MustCompile(`\$\s?(` + amountPattern + `)\s?(k|thousand|m|million)?\b`)
	scaledRe = regexp.MustCompile(`(` + amountPattern + `)\s?(k|thousand|m|million)\b`)
	numberRe = regexp.MustCompile(amountPattern)
	rateRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(?:%|percent|interest)`)
	yearsRe  = regexp.MustCompile(`(\d+)\s?-?\s?(?:years?|yrs?)\b`)
	monthsRe = regexp.MustCompile(`(\d+)\s?-?\s?(?:months?|mos?)\b`)
)

// LoanParams are the figures pulled out of a free text calculation request.
type LoanParams struct {
	Principal         float64
	AnnualRatePercent float64
	TermMonths        int
}

// IsCalculationRequest reports whether a message asks for numbers: it must
// contain a digit and either a calculation keyword or a $ or % sign.
func IsCalculationRequest(message string) bool {
	msg := strings.ToLower(message)
	if !digitRe.MatchString(msg) {
		return false
	}
	if strings.ContainsAny(msg, "$%") {
		return true
	}
	for _, kw := range calculationKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// ExtractLoanParams pulls principal, rate and term out of message, filling
// the gaps with a $200,000 / 10% / 60 month loan. It reports false when the
// result cannot be calculated within limits.
func ExtractLoanParams(message string, limits Limits) (LoanParams, bool) {
	msg := strings.ToLower(message)
	params := LoanParams{
		Principal:         chatDefaultPrincipal,
		AnnualRatePercent: chatDefaultRatePercent,
		TermMonths:        chatDefaultTermMonths,
	}

	var claimed [][2]int

	if m := rateRe.FindStringSubmatchIndex(msg); m != nil {
		v, err := strconv.ParseFloat(msg[m[2]:m[3]], 64)
		if err == nil {
			params.AnnualRatePercent = v
		}
		claimed = append(claimed, [2]int{m[2], m[3]})
	}

	if m := yearsRe.FindStringSubmatchIndex(msg); m != nil {
		if v, err := strconv.Atoi(msg[m[2]:m[3]]); err == nil {
			params.TermMonths = v * 12
		}
		claimed = append(claimed, [2]int{m[2], m[3]})
	} else if m := monthsRe.FindStringSubmatchIndex(msg); m != nil {
		if v, err := strconv.Atoi(msg[m[2]:m[3]]); err == nil {
			params.TermMonths = v
		}
		claimed = append(claimed, [2]int{m[2], m[3]})
	}

	if p, ok := extractPrincipal(msg, claimed); ok {
		params.Principal = p
	}

	if params.Principal <= 0 || params.Principal > limits.MaxLoanAmount {
		return params, false
	}
	if params.TermMonths < MinTermMonths || params.TermMonths > limits.MaxTermMonths {
		return params, false
	}
	if params.AnnualRatePercent > limits.MaxInterestRate {
		return params, false
	}
	return params, true
}

func extractPrincipal(msg string, claimed [][2]int) (float64, bool) {
	if m := dollarRe.FindStringSubmatch(msg); m != nil {
		return scaleAmount(m[1], m[2])
	}
	if m := scaledRe.FindStringSubmatch(msg); m != nil {
		return scaleAmount(m[1], m[2])
	}
	for _, loc := range numberRe.FindAllStringIndex(msg, -1) {
		if overlaps(loc, claimed) {
			continue
		}
		return scaleAmount(msg[loc[0]:loc[1]], "")
	}
	return 0, false
}

func scaleAmount(raw, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch suffix {
	case "k", "thousand":
		v *= 1_000
	case "m", "million":
		v *= 1_000_000
	}
	return v, true
}

func overlaps(loc []int, spans [][2]int) bool {
	for _, s := range spans {
		if loc[0] < s[1] && s[0] < loc[1] {
			return true
		}
	}
	return false
}

// CalculationSummary renders the figures the assistant is told to quote.
func CalculationSummary(p LoanParams) (string, error) {
	emi, err := CalculateEMI(p.Principal, p.AnnualRatePercent, p.TermMonths)
	if err != nil {
		return "", err
	}
	interest := CalculateTotalInterest(p.Principal, emi, p.TermMonths)

	years := strconv.FormatFloat(float64(p.TermMonths)/12, 'f', -1, 64)
	rate := strconv.FormatFloat(p.AnnualRatePercent, 'f', -1, 64)

	return fmt.Sprintf(
		"For a $%s loan at %s%% interest for %s years (%d months):\n\n"+
			"- Monthly payment: $%s\n"+
			"- Total interest paid: $%s\n"+
			"- Total amount paid: $%s",
		humanize.Commaf(p.Principal), rate, years, p.TermMonths,
		humanize.Commaf(emi),
		humanize.Commaf(interest),
		humanize.Commaf(roundTo2Decimals(p.Principal+interest)),
	), nil
}

type ChatService struct {
	completer Completer
	limits    Limits
	logger    *zap.Logger
}

func NewChatService(completer Completer, limits Limits, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{completer: completer, limits: limits, logger: logger}
}

// Respond answers the last user message of the conversation.
func (s *ChatService) Respond(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	ctx, span := tracer.Start(ctx, "chat.respond")
	defer span.End()

	for i, m := range messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			metrics.ChatRequests.WithLabelValues("rejected").Inc()
			return domain.Message{}, &domain.ValidationError{
				Field:  fmt.Sprintf("messages[%d].role", i),
				Reason: fmt.Sprintf("must be user or assistant, got %q", m.Role),
			}
		}
	}

	last, ok := lastUserMessage(messages)
	if !ok {
		metrics.ChatRequests.WithLabelValues("rejected").Inc()
		return domain.Message{}, ErrNoUserMessage
	}

	system := chatSystemPrompt
	summary := ""
	if IsCalculationRequest(last.Content) {
		if params, ok := ExtractLoanParams(last.Content, s.limits); ok {
			if text, err := CalculationSummary(params); err == nil {
				summary = text
				system += calculationHeader + summary
				span.SetAttributes(
					attribute.Float64("loan.principal", params.Principal),
					attribute.Float64("loan.rate_percent", params.AnnualRatePercent),
					attribute.Int("loan.term_months", params.TermMonths),
				)
			}
		}
	}
	span.SetAttributes(attribute.Bool("chat.calculation", summary != ""))

	reply, err := s.completer.Complete(withAIOperation(ctx, "chat"), system, messages)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		metrics.ChatRequests.WithLabelValues("failed").Inc()
		s.logger.Error("chat completion failed", zap.Error(err))
		return domain.Message{}, fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}

	if summary != "" {
		metrics.ChatRequests.WithLabelValues("calculated").Inc()
		if !strings.Contains(reply, "$") {
			reply = "Here's the loan calculation result:\n" + summary
		}
	} else {
		metrics.ChatRequests.WithLabelValues("answered").Inc()
	}

	return domain.Message{Role: domain.RoleAssistant, Content: reply}, nil
}

func lastUserMessage(messages []domain.Message) (domain.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i], true
		}
	}
	return domain.Message{}, false
}
