package service

import (
	"Rewards/config"
	"Rewards/dao"
	"Rewards/pkg/response"
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// 去掉了 0/O、1/I 这两组易混淆字符，正好 32 个
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	codePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}$`)
	seqPattern  = regexp.MustCompile(`^\d{3,}$`)
)

// GenerateCode 生成 XXXX-XXXX 格式的随机券码
func GenerateCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	code := make([]byte, 0, 9)
	for i, b := range buf {
		if i == 4 {
			code = append(code, '-')
		}
		// 字母表长度为 32，取低 5 位没有取模偏差
		code = append(code, codeAlphabet[b&31])
	}
	return string(code), nil
}

// IsCodeFormat 校验券码格式，不查库
func IsCodeFormat(code string) bool {
	return codePattern.MatchString(code)
}

// NormalizeCode 扫码输入容错：去空白、转大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FormatReference 生成 CP-001 形式的编号，超过 3 位不截断
func FormatReference(prefix string, seq int64) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}

// ParseReference 解析编号中的序号
func ParseReference(prefix, ref string) (int64, error) {
	digits, ok := strings.CutPrefix(ref, prefix)
	if !ok || !seqPattern.MatchString(digits) {
		return 0, response.Validation("invalid coupon reference %q", ref)
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, response.Validation("invalid coupon reference %q", ref)
	}
	return seq, nil
}

type codeLookup func(ctx context.Context, tx *gorm.DB, codes []string) ([]string, error)

// CodeGenerator 生成全局唯一的券码
type CodeGenerator struct {
	attempts int
	random   func() (string, error)
	lookup   codeLookup
}

func NewCodeGenerator(coupons *dao.CouponDAO, conf *config.Coupon) *CodeGenerator {
	return &CodeGenerator{
		attempts: conf.CodeAttempts,
		random:   GenerateCode,
		lookup:   coupons.ExistingCodes,
	}
}

// Generate 生成 n 个互不相同且库里不存在的券码。
// 每轮只为冲突的位置重新抽取，单个位置抽满 attempts 次仍冲突则整单失败。
func (g *CodeGenerator) Generate(ctx context.Context, tx *gorm.DB, n int) ([]string, error) {
	codes := make([]string, n)
	pending := make([]int, n)
	for i := range pending {
		pending[i] = i
	}
	seen := make(map[string]struct{}, n)

	for round := 0; round < g.attempts && len(pending) > 0; round++ {
		candidates := make([]string, 0, len(pending))
		for _, idx := range pending {
			code, err := g.random()
			if err != nil {
				return nil, fmt.Errorf("generate coupon code: %w", err)
			}
			codes[idx] = code
			candidates = append(candidates, code)
		}

		taken, err := g.lookup(ctx, tx, candidates)
		if err != nil {
			return nil, fmt.Errorf("check coupon codes: %w", err)
		}
		takenSet := make(map[string]struct{}, len(taken))
		for _, c := range taken {
			takenSet[c] = struct{}{}
		}

		retry := pending[:0]
		for _, idx := range pending {
			code := codes[idx]
			if _, dup := takenSet[code]; dup {
				retry = append(retry, idx)
				continue
			}
			if _, dup := seen[code]; dup {
				retry = append(retry, idx)
				continue
			}
			seen[code] = struct{}{}
		}
		pending = retry
	}

	if len(pending) > 0 {
		return nil, response.GenerationFailure("failed to generate %d unique coupon codes after %d attempts", len(pending), g.attempts)
	}
	return codes, nil
}
