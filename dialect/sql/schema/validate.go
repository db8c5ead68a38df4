package schema

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropTable     bool
	allowNullToNotNull bool
}

// AllowDropColumn allows dropping columns without error.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable allows dropping tables without error.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowNullToNotNull allows changing nullable columns to not null.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff validates the difference between the current (introspected)
// and the desired tables. It returns errors for breaking changes and
// warnings for potentially dangerous operations. Tables are matched by
// qualified name.
//
// Example:
//
//	result := schema.ValidateDiff(current, desired)
//	if result.HasBreakingChanges() {
//	    log.Fatal("Breaking changes detected:", result)
//	}
func ValidateDiff(current, desired []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	result := &ValidationResult{}
	desiredMap := make(map[string]*Table, len(desired))
	for _, t := range desired {
		desiredMap[t.QualifiedName()] = t
	}

	for _, cur := range current {
		want, ok := desiredMap[cur.QualifiedName()]
		if !ok {
			result.add(cfg.allowDropTable, &ValidationError{
				Table:    cur.QualifiedName(),
				Message:  "table will be dropped",
				Breaking: true,
			})
			continue
		}
		validateTableDiff(cur, want, cfg, result)
	}
	return result
}

func validateTableDiff(current, desired *Table, cfg *validateConfig, result *ValidationResult) {
	name := current.QualifiedName()

	// Dropped columns.
	for _, c := range current.Columns {
		if _, ok := desired.Column(c.Name); !ok {
			result.add(cfg.allowDropColumn, &ValidationError{
				Table:    name,
				Column:   c.Name,
				Message:  "column will be dropped",
				Breaking: true,
			})
		}
	}

	for _, want := range desired.Columns {
		cur, ok := current.Column(want.Name)
		if !ok {
			if want.NotNull && want.Default == nil {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   name,
					Column:  want.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
			continue
		}
		if cur.Type != "" && want.Type != "" && cur.Type != want.Type {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   name,
				Column:  want.Name,
				Message: fmt.Sprintf("column type changing from %v to %v", cur.Type, want.Type),
			})
		}
		if !cur.NotNull && want.NotNull {
			result.add(cfg.allowNullToNotNull, &ValidationError{
				Table:    name,
				Column:   want.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			})
		}
		if !cur.Unique && !cur.Primary && want.Unique {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   name,
				Column:  want.Name,
				Message: "adding UNIQUE constraint may fail if duplicate values exist",
			})
		}
	}
}

// add records err as a warning when allowed, and as an error otherwise.
func (r *ValidationResult) add(allowed bool, err *ValidationError) {
	if allowed {
		r.Warnings = append(r.Warnings, err)
	} else {
		r.Errors = append(r.Errors, err)
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	name := t.QualifiedName()
	if t.Name == "" {
		result.Errors = append(result.Errors, &ValidationError{Message: "table name is empty"})
	}
	if len(t.Columns) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   name,
			Message: "table has no columns",
		})
	}
	if len(t.PrimaryKey()) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   name,
			Message: "table has no primary key",
		})
	}

	colNames := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   name,
				Message: "column name is empty",
			})
			continue
		}
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true

		switch {
		case c.Type == "" && c.DBType == "":
			result.Errors = append(result.Errors, &ValidationError{
				Table:   name,
				Column:  c.Name,
				Message: "column has no type",
			})
		case c.Type != "" && !slices.Contains(Types(), c.Type):
			result.Errors = append(result.Errors, &ValidationError{
				Table:   name,
				Column:  c.Name,
				Message: fmt.Sprintf("unknown type %q", c.Type),
			})
		}
		if fk := c.Foreign; fk != nil && (fk.Table == "" || fk.Column == "") {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   name,
				Column:  c.Name,
				Message: "foreign key has no referenced table or column",
			})
		}
	}
	return result
}

// ValidateSchema validates all tables of a schema, including that every
// foreign key references an existing column of a table in the set.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}

	tableMap := make(map[string]*Table, len(tables))
	for _, t := range tables {
		name := t.QualifiedName()
		if _, ok := tableMap[name]; ok {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   name,
				Message: "duplicate table name",
			})
		}
		tableMap[name] = t

		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}

	for _, t := range tables {
		for _, c := range t.ForeignKeys() {
			fk := c.Foreign
			if fk.Table == "" || fk.Column == "" {
				continue
			}
			ref, ok := tableMap[fk.TableName().QualifiedName()]
			if !ok {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.QualifiedName(),
					Column:  c.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", fk.TableName().QualifiedName()),
				})
				continue
			}
			if _, ok := ref.Column(fk.Column); !ok {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.QualifiedName(),
					Column:  c.Name,
					Message: fmt.Sprintf("foreign key references non-existent column %q.%q", ref.Name, fk.Column),
				})
			}
		}
	}
	return result
}
