package sqlinline

const QEnsureCreditBalance = `--sql 7e3a90d5-21c8-4f6b-b3e7-8a54d19c0f26
insert into credit_balances (user_id, credits, updated_at)
values ($1::uuid, 0, now())
on conflict (user_id) do nothing;
`

// Atomic balance delta plus ledger append in one statement. The "for update"
// lock serializes concurrent deltas for the same user; a delta that would go
// negative (or an unknown user) matches no row and nothing is written.
// Args: user_id, signed delta, magnitude, transaction type.
const QApplyCreditDelta = `--sql a5f61b38-d490-4c27-8e13-b9c0724de5a1
with target as (
    select user_id, credits
    from credit_balances
    where user_id = $1::uuid
    for update
),
updated as (
    update credit_balances cb
    set credits = t.credits + $2::int,
        updated_at = now()
    from target t
    where cb.user_id = t.user_id
      and t.credits + $2::int >= 0
    returning cb.credits
),
recorded as (
    insert into credit_transactions (id, user_id, amount, type, created_at)
    select gen_random_uuid(), $1::uuid, $3::int, $4::text, now()
    where exists (select 1 from updated)
    returning id
)
select u.credits
from updated u;
`

const QSelectCreditBalance = `--sql 28c4e7f0-96ad-4b15-a8d2-3e671c50b9f4
select credits
from credit_balances
where user_id = $1::uuid;
`

const QListCreditTransactions = `--sql 60b9d2a7-4e85-4c01-9f36-71a8e5d3c420
select id, amount, type, created_at
from credit_transactions
where user_id = $1::uuid
order by created_at desc
limit $2::int;
`
