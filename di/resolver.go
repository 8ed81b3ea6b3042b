package di

import (
	"context"
	"fmt"
)

// normalizeRef 把任意可请求引用规约为 (令牌, 绑定参数)
//
// 支持的引用形式：
//   - *Token        普通令牌，无绑定参数
//   - *BoundToken   绑定令牌，参数在绑定时固定
//   - *LazyToken    延迟令牌，参数首次解析时计算一次
//   - TokenProvider 原始可构造引用，从值上推导其令牌
func normalizeRef(ctx context.Context, ref any) (*Token, Args, error) {
	switch v := ref.(type) {
	case *Token:
		return v, nil, nil
	case *BoundToken:
		return v.Token(), v.Args(), nil
	case *LazyToken:
		args, err := v.resolveArgs(ctx)
		if err != nil {
			return nil, nil, &UnknownError{Cause: fmt.Errorf("lazy token %q: %w", v.Token().ID(), err)}
		}
		return v.Token(), args, nil
	case TokenProvider:
		tok := v.ProvideToken()
		if tok == nil {
			return nil, nil, &UnknownError{Cause: fmt.Errorf("token provider %T returned nil token", ref)}
		}
		return tok, nil, nil
	default:
		return nil, nil, &UnknownError{Cause: fmt.Errorf("unsupported reference type %T", ref)}
	}
}

// validateArgs 委托给令牌的 schema 校验参数
// 没有 schema 时参数原样通过
func validateArgs(tok *Token, raw Args) (Args, error) {
	schema := tok.Schema()
	if schema == nil {
		return raw, nil
	}

	validated, err := schema.Validate(raw)
	if err != nil {
		verr := &ValidationError{TokenID: tok.ID(), Value: raw, Cause: err}
		// 校验器可以给出结构化差异说明
		if diffable, ok := err.(interface{ Diff() map[string]string }); ok {
			verr.Diff = diffable.Diff()
		}
		return nil, verr
	}
	return validated, nil
}

// mergeBoundArgs 调用方参数覆盖绑定参数
func mergeBoundArgs(bound, call Args) Args {
	if len(bound) == 0 {
		return call
	}
	if len(call) == 0 {
		return bound
	}
	merged := make(Args, len(bound)+len(call))
	for k, v := range bound {
		merged[k] = v
	}
	for k, v := range call {
		merged[k] = v
	}
	return merged
}
