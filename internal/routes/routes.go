// Package routes содержит единую статическую таблицу классификации маршрутов.
//
// Каждый путь попадает ровно в один класс: public, admin-only или protected.
// Путь, не описанный в таблице, считается protected.
package routes

import (
	"fmt"
	"path"
	"strings"
)

// Version версия таблицы маршрутов. Меняется при любом изменении Default.
const Version = 4

// Class класс политики доступа для маршрута.
type Class string

const (
	// Public - идентификация не требуется.
	Public Class = "public"
	// AdminOnly - требуется роль admin.
	AdminOnly Class = "admin-only"
	// Protected - требуется активный аккаунт с действующей подпиской.
	Protected Class = "protected"
)

// Rule связывает префикс пути с классом.
//
// Префикс совпадает с путём целиком или с любым его подпутём:
// "/admin" совпадает с "/admin" и "/admin/users", но не с "/administrator".
type Rule struct {
	Prefix string
	Class  Class
}

// Table неизменяемая таблица правил. Побеждает самый длинный совпавший префикс.
type Table struct {
	rules []Rule
}

// New создаёт таблицу и проверяет, что префиксы не повторяются.
func New(rules ...Rule) (*Table, error) {
	const op = "routes.New"
	seen := make(map[string]struct{}, len(rules))
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		p := normalize(r.Prefix)
		switch r.Class {
		case Public, AdminOnly, Protected:
		default:
			return nil, fmt.Errorf("%s: unknown class %q for prefix %s", op, r.Class, r.Prefix)
		}
		if _, ok := seen[p]; ok {
			return nil, fmt.Errorf("%s: duplicate prefix %s", op, p)
		}
		seen[p] = struct{}{}
		out = append(out, Rule{Prefix: p, Class: r.Class})
	}
	return &Table{rules: out}, nil
}

// MustNew как New, но паникует при ошибке.
func MustNew(rules ...Rule) *Table {
	t, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Default таблица маршрутов приложения.
//
// Страница истёкшей подписки публичная, иначе пользователь с истёкшей подпиской
// попадёт в бесконечный редирект.
func Default() *Table {
	return MustNew(
		Rule{Prefix: "/login", Class: Public},
		Rule{Prefix: "/subscription-expired", Class: Public},
		Rule{Prefix: "/healthz", Class: Public},
		Rule{Prefix: "/metrics", Class: Public},
		Rule{Prefix: "/static", Class: Public},
		Rule{Prefix: "/api/v1/auth", Class: Public},
		Rule{Prefix: "/admin", Class: AdminOnly},
		Rule{Prefix: "/api/v1/admin", Class: AdminOnly},
		Rule{Prefix: "/docs", Class: AdminOnly},
	)
}

// Classify возвращает класс пути. Незнакомый путь - Protected.
func (t *Table) Classify(p string) Class {
	p = normalize(p)
	best := -1
	class := Protected
	for _, r := range t.rules {
		if !matches(r.Prefix, p) {
			continue
		}
		if len(r.Prefix) > best {
			best = len(r.Prefix)
			class = r.Class
		}
	}
	return class
}

// Rules возвращает копию правил таблицы.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

func matches(prefix, p string) bool {
	if prefix == "/" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// normalize приводит путь к каноническому виду, чтобы "/admin/../admin//x"
// и "/admin/x" классифицировались одинаково.
func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
