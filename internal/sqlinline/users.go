package sqlinline

const QUpdateUserPlan = `--sql 5a82e2ad-7b09-40c5-9d22-2d28db58c0f0
update users
set plan = $2::text,
    updated_at = now()
where id = $1::uuid
returning id;
`
