package common

import (
	"strings"
	"time"

	"github.com/Alia5/fswgen/internal/codegen/meta"
)

// BannerTimeLayout is the creation time format of artifact banners.
const BannerTimeLayout = time.UnixDate

// Banner renders the creation comment that opens every generated file.
// tables may be empty, in which case the Table(s) line is omitted.
func Banner(info meta.Info, tables []string) string {
	var b strings.Builder
	b.WriteString("/* Created : " + info.Created.Format(BannerTimeLayout) + "\n")
	b.WriteString("   User    : " + info.User + "\n")
	b.WriteString("   Project : " + info.Project + "\n")
	b.WriteString("   Tool    : " + info.Tool + "\n")
	if len(tables) > 0 {
		b.WriteString("   Table(s): " + strings.Join(tables, ",\n             ") + "\n")
	}
	b.WriteString("*/\n")
	return b.String()
}
