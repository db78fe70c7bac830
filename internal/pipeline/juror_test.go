package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickClaims(t *testing.T) {
	features := []string{"实时协作编辑", "离线模式", "版本历史"}
	pricing := map[string]string{"Pro": "$10/mo", "Basic": "$0"}

	claims := pickClaims(features, pricing)
	assert.Equal(t, []string{
		"Feature: 实时协作编辑",
		"Feature: 离线模式",
		"Pricing Basic: $0",
	}, claims)
}

func TestPickClaimsDeterministicPricing(t *testing.T) {
	pricing := map[string]string{"Team": "$20", "Basic": "$0", "Enterprise": "custom"}
	// map 遍历无序，但抽取必须稳定：按套餐名排序取首条
	for i := 0; i < 10; i++ {
		claims := pickClaims(nil, pricing)
		assert.Equal(t, []string{"Pricing Basic: $0"}, claims)
	}
}

func TestPickClaimsFeaturesOnly(t *testing.T) {
	claims := pickClaims([]string{"单点登录"}, nil)
	assert.Equal(t, []string{"Feature: 单点登录"}, claims)
}

func TestPickClaimsEmpty(t *testing.T) {
	assert.Empty(t, pickClaims(nil, nil))
}

func TestPickClaimsCapped(t *testing.T) {
	features := []string{"f1", "f2", "f3", "f4"}
	pricing := map[string]string{"a": "1", "b": "2"}
	assert.Len(t, pickClaims(features, pricing), 3)
}
