// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// BuildScript returns the shell sequence that configures, builds and
// installs the pass toolchain. build.script wins verbatim when set.
func (c Config) BuildScript() (string, error) {
	if c.Build.Script != "" {
		return c.Build.Script, nil
	}

	args := []string{"cmake"}
	if c.Build.Verbose {
		args = append(args, "-DVERBOSE=TRUE")
	}
	args = append(args,
		"-DCMAKE_C_COMPILER="+c.Build.CCompiler,
		"-DCMAKE_CXX_COMPILER="+c.Build.CXXCompiler,
		"-DCMAKE_INSTALL_PREFIX="+c.EffectiveInstallPrefix(),
		"-DCMAKE_BUILD_TYPE="+c.Build.BuildType,
	)
	args = append(args, c.Build.ExtraFlags...)
	args = append(args, "-B", c.Build.BuildDir, "-S", ".", "-G", c.Build.Generator)

	configure, err := shellJoin(args)
	if err != nil {
		return "", err
	}
	dir, err := shellWord(c.Build.BuildDir)
	if err != nil {
		return "", err
	}

	var install string
	switch c.Build.Generator {
	case GeneratorNinja:
		install = fmt.Sprintf("(cd %s && ninja install)", dir)
	case GeneratorMake:
		install = fmt.Sprintf("(cd %s && make install)", dir)
	default:
		install = fmt.Sprintf("cmake --build %s --target install", dir)
	}
	return configure + "\n" + install, nil
}

func shellJoin(args []string) (string, error) {
	words := make([]string, len(args))
	for i, a := range args {
		w, err := shellWord(a)
		if err != nil {
			return "", err
		}
		words[i] = w
	}
	return strings.Join(words, " "), nil
}

// shellWord quotes s only when it contains characters outside the safe set.
func shellWord(s string) (string, error) {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_./=+:,@%-") == "" {
		return s, nil
	}
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("cannot quote build argument %q: %w", s, err)
	}
	return q, nil
}
