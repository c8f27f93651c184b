package security

import "testing"

func TestFromInt32(t *testing.T) {
	tests := []struct {
		name  string
		perms int32
		want  Permissions
	}{
		{
			name:  "all permissions granted",
			perms: -1,
			want:  Permissions{Modify: true, Annotate: true, FillForms: true},
		},
		{
			name:  "only required bits set",
			perms: int32(-4096), // 0xFFFFF000
			want:  Permissions{Modify: false, Annotate: false, FillForms: false},
		},
		{
			name:  "typical restricted value (-44): modify denied, forms allowed",
			perms: -44,
			want:  Permissions{Modify: false, Annotate: false, FillForms: true},
		},
		{
			name:  "modify bit only",
			perms: int32(-4096) | 0x08,
			want:  Permissions{Modify: true, Annotate: false, FillForms: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromInt32(tt.perms)
			if got != tt.want {
				t.Errorf("FromInt32(%d) = %+v, want %+v", tt.perms, got, tt.want)
			}
		})
	}
}

func TestAllowsRename(t *testing.T) {
	tests := []struct {
		name  string
		perms Permissions
		want  bool
	}{
		{"modify and fill forms allowed", Permissions{Modify: true, FillForms: true}, true},
		{"modify denied", Permissions{Modify: false, FillForms: true}, false},
		{"fill forms denied", Permissions{Modify: true, FillForms: false}, false},
		{"annotate alone never enough", Permissions{Annotate: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.perms.AllowsRename(); got != tt.want {
				t.Errorf("AllowsRename() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPermissionsString(t *testing.T) {
	unrestricted := Permissions{Modify: true, Annotate: true, FillForms: true}
	if got := unrestricted.String(); got != "unrestricted" {
		t.Errorf("String() = %q, want %q", got, "unrestricted")
	}

	restricted := Permissions{Modify: false, Annotate: true, FillForms: true}
	got := restricted.String()
	if got == "unrestricted" {
		t.Errorf("String() should report a denial, got %q", got)
	}
}
