// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PackageNotFoundId Id = iota + 1
	DefinitionParseErrorId
	SolveFailedId
	NoLocationsId
	ConfigLoadFailedId
	EnvNotFoundId
	AppNotFoundId
	CircularReferenceId
	ShellNotFoundId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package not found!

The package you requested is not in any scanned repository.

## Things you can try:
- List everything the repositories hold:
~~~
$ pkgr list
~~~

- Check for typos in the package name
- Widen the version constraint (e.g. ` + "`maya`" + ` instead of ` + "`maya@2027`" + `)
- Verify the repository roots:
~~~
$ pkgr scan --verbose
~~~`,
	}

	definitionParseErrorIssue = &Issue{
		id: DefinitionParseErrorId,
		mdMsg: `
# Failed to parse package definition!

A package.cue file contains syntax errors or invalid fields.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- A version that is not three dot-separated integers
- A requirement string that does not parse

## Things you can try:
- Check the error message above for the specific line/column
- Validate the file with the cue command-line tool

## Example of a valid definition:
~~~cue
package: {
	base:    "maya"
	version: "2026.1.0"
	reqs: ["python@3.11"]
	envs: [{
		name: "default"
		evars: [{name: "PATH", value: "{PKG_MAYA_ROOT}/bin", action: "append"}]
	}]
}
~~~`,
	}

	solveFailedIssue = &Issue{
		id: SolveFailedId,
		mdMsg: `
# Version solving failed!

No combination of package versions satisfies the request. The trace
above names the requirements that contradict each other.

## Things you can try:
- Relax the version constraints in the request
- Check which versions the repositories actually hold:
~~~
$ pkgr list <package>
~~~

- Inspect the requirements of the packages in the trace:
~~~
$ pkgr info <package>
~~~`,
	}

	noLocationsIssue = &Issue{
		id: NoLocationsId,
		mdMsg: `
# No repository roots!

There is nowhere to look for packages.

## Roots are resolved in this order:
1. Paths given on the command line
2. The PKG_LOCATIONS environment variable
3. ./repo in the working directory
4. ~/packages (when user packages are enabled)

## Things you can try:
- Point PKG_LOCATIONS at a repository:
~~~
$ export PKG_LOCATIONS=/facility/repo
~~~

- Or add locations to your config file:
~~~cue
locations: ["/facility/repo"]
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the pkgr configuration file.

## Configuration file locations:
- Linux: ~/.config/pkgr/config.cue
- macOS: ~/Library/Application Support/pkgr/config.cue
- Windows: %APPDATA%\pkgr\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ pkgr config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~cue
locations: ["/facility/repo"]
user_packages: true

ui: {
	color_scheme: "auto"
	verbose: false
}
~~~`,
	}

	envNotFoundIssue = &Issue{
		id: EnvNotFoundId,
		mdMsg: `
# Environment not found!

The package defines no environment with the requested name.

## Things you can try:
- List the environments the package defines:
~~~
$ pkgr info <package>
~~~

- Omit the name to compose the "default" environment
- Check the envs block of the package definition`,
	}

	appNotFoundIssue = &Issue{
		id: AppNotFoundId,
		mdMsg: `
# Application not found!

The package defines no application with the requested name.

## Things you can try:
- List the applications the package defines:
~~~
$ pkgr info <package>
~~~

- Check the apps block of the package definition
- Run an arbitrary command in the composed environment instead:
~~~
$ pkgr env <package> exec -- <command>
~~~`,
	}

	circularReferenceIssue = &Issue{
		id: CircularReferenceId,
		mdMsg: `
# Circular token reference!

Environment variables reference each other in a cycle, so expansion
can never finish.

## Example of a cycle:
~~~cue
evars: [
	{name: "A", value: "{B}"},
	{name: "B", value: "{A}"},  // Cycle: A -> B -> A
]
~~~

## Things you can try:
- Review the evars named in the error
- Break the cycle by giving one variable a literal value`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Could not find a suitable shell to run the command in.

## Shells we look for:
- Linux/macOS: $SHELL, bash, sh
- Windows: pwsh, powershell, cmd

## Things you can try:
- Install bash or another POSIX shell
- Set the SHELL environment variable`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The repository root is not readable
- The cache or config directory is not writable
- The application binary is not executable

## Things you can try:
- Check file/directory permissions
- Point the cache at a directory you own:
~~~cue
cache_path: "/tmp/pkgr.cache"
~~~`,
	}

	issues = map[Id]*Issue{
		packageNotFoundIssue.Id():      packageNotFoundIssue,
		definitionParseErrorIssue.Id(): definitionParseErrorIssue,
		solveFailedIssue.Id():          solveFailedIssue,
		noLocationsIssue.Id():          noLocationsIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		envNotFoundIssue.Id():          envNotFoundIssue,
		appNotFoundIssue.Id():          appNotFoundIssue,
		circularReferenceIssue.Id():    circularReferenceIssue,
		shellNotFoundIssue.Id():        shellNotFoundIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
