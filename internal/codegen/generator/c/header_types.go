package cgen

const typesHeaderTmpl = `{{banner .Tables}}
#ifndef {{guard .Base}}
#define {{guard .Base}}

{{includes}}
{{pointers .Structures}}
#define SWAP_TO_LOCAL   0
#define SWAP_TO_FOREIGN 1

#pragma pack(push, 1)
{{range .Structures}}
{{structBlock .}}{{end}}
#pragma pack(pop)

/* Byte and bit swap procedures */
{{range .Structures}}void byte_swap_{{.Name}}(const {{.Name}} *in, {{.Name}} *out, int direction);
{{if hasBits .Name}}void bit_swap_{{.Name}}(const {{.Name}} *in, {{.Name}} *out, int direction);
{{end}}{{end}}
#endif /* {{guard .Base}} */
`

const sharedHeaderTmpl = `{{banner .Tables}}
#ifndef {{guard .Base}}
#define {{guard .Base}}

#include <stdint.h>
{{pointers .Structures}}
#pragma pack(push, 1)
{{range .Structures}}
{{structBlock .}}{{end}}
#pragma pack(pop)

#endif /* {{guard .Base}} */
`

const msgIDHeaderTmpl = `{{banner .Tables}}
#ifndef {{guard .Base}}
#define {{guard .Base}}
{{with .Includes}}
{{.}}
{{end}}{{range .Sections}}
/* {{.Title}} */
{{range .Defines}}{{.}}
{{end}}{{end}}
#endif /* {{guard .Base}} */
`
